package main

import (
	"strconv"
	"strings"
	"time"
)

// commandFlags is the parsed form of a subcommand's arguments. Flags take
// either "--name value" or "--name=value"; names listed as switches take no
// value.
type commandFlags struct {
	values     map[string]string
	switches   map[string]bool
	positional []string
}

func parseFlags(args []string, switches ...string) commandFlags {
	isSwitch := make(map[string]bool, len(switches))
	for _, s := range switches {
		isSwitch[s] = true
	}

	f := commandFlags{values: map[string]string{}, switches: map[string]bool{}}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			f.positional = append(f.positional, arg)
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			f.values[k] = v
			continue
		}
		if isSwitch[name] {
			f.switches[name] = true
			continue
		}
		if i+1 < len(args) {
			f.values[name] = args[i+1]
			i++
		}
	}
	return f
}

func (f commandFlags) String(name string) string {
	return f.values[name]
}

func (f commandFlags) Bool(name string) bool {
	return f.switches[name]
}

func (f commandFlags) Float(name string) (float64, bool) {
	v, err := strconv.ParseFloat(f.values[name], 64)
	return v, err == nil
}

func (f commandFlags) Int(name string, def int) int {
	if v, err := strconv.Atoi(f.values[name]); err == nil {
		return v
	}
	return def
}

// Time accepts RFC3339 or a plain date. A plain date used as an upper bound
// covers the whole day.
func (f commandFlags) Time(name string, endOfDay bool) *time.Time {
	raw := f.values[name]
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
