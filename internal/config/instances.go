package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// InstanceType identifies the kind of colorgorical process.
type InstanceType string

const (
	InstanceServe    InstanceType = "serve"
	InstanceServeMCP InstanceType = "serve-mcp"
)

// Instance describes a running colorgorical server and the palette engine
// it serves.
type Instance struct {
	Type       InstanceType `json:"type"`
	PID        int          `json:"pid"`
	Port       int          `json:"port,omitempty"`
	Host       string       `json:"host,omitempty"`
	Version    string       `json:"version,omitempty"`
	Catalog    string       `json:"catalog,omitempty"`    // "generated" or the table path
	References string       `json:"references,omitempty"` // reference palette source
	StartedAt  time.Time    `json:"started_at"`
}

// SameEngine reports whether inst serves palettes from the given catalog
// and reference sources, so its results match a local run.
func (inst Instance) SameEngine(catalog, references string) bool {
	return inst.Catalog == catalog && inst.References == references
}

// registry is the instances.json file under the config directory.
type registry struct {
	path string
}

func openRegistry() (registry, error) {
	dir, err := Dir()
	if err != nil {
		return registry{}, err
	}
	return registry{path: filepath.Join(dir, "instances.json")}, nil
}

// update applies fn to the live entries and writes the result back. Dead
// PIDs never reach fn.
func (r registry) update(fn func([]Instance) []Instance) ([]Instance, error) {
	all, err := r.read()
	if err != nil {
		return nil, err
	}
	live := slices.DeleteFunc(slices.Clone(all), func(inst Instance) bool { return !isProcessAlive(inst.PID) })
	next := live
	if fn != nil {
		next = fn(live)
	}
	if fn == nil && len(live) == len(all) {
		return live, nil
	}
	if err := r.write(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (r registry) read() ([]Instance, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var instances []Instance
	if err := json.Unmarshal(data, &instances); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(r.path), err)
	}
	return instances, nil
}

// write replaces the registry through a temp file so concurrent readers
// never see a partial list.
func (r registry) write(instances []Instance) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if instances == nil {
		instances = []Instance{}
	}
	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(r.path), err)
	}
	return nil
}

// RegisterInstance records inst, replacing any entry with the same PID.
func RegisterInstance(inst Instance) error {
	r, err := openRegistry()
	if err != nil {
		return err
	}
	_, err = r.update(func(live []Instance) []Instance {
		live = slices.DeleteFunc(live, func(i Instance) bool { return i.PID == inst.PID })
		return append(live, inst)
	})
	return err
}

// UnregisterInstance removes the entry for pid.
func UnregisterInstance(pid int) error {
	r, err := openRegistry()
	if err != nil {
		return err
	}
	_, err = r.update(func(live []Instance) []Instance {
		return slices.DeleteFunc(live, func(i Instance) bool { return i.PID == pid })
	})
	return err
}

// ListInstances returns the running instances, oldest first.
func ListInstances() ([]Instance, error) {
	r, err := openRegistry()
	if err != nil {
		return nil, err
	}
	live, err := r.update(nil)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(live, func(a, b Instance) int { return a.StartedAt.Compare(b.StartedAt) })
	return live, nil
}

// FindInstanceByPort returns the HTTP server listening on port, or nil.
func FindInstanceByPort(port int) *Instance {
	instances, err := ListInstances()
	if err != nil {
		return nil
	}
	i := slices.IndexFunc(instances, func(inst Instance) bool { return inst.Port == port })
	if i < 0 {
		return nil
	}
	return &instances[i]
}
