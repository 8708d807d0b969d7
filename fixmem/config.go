package main

import (
	"fmt"
	"os"
	"strconv"

	"sigs.k8s.io/yaml"

	"github.com/akmistry/fixmem"
)

const defaultAddress = "0x00007FF49E872000"

type config struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
	Exact   bool   `json:"exact"`
	Backing string `json:"backing"`

	RedisAddr             string `json:"redisAddr"`
	HTTPAddr              string `json:"httpAddr"`
	MaxConcurrentRequests int    `json:"maxConcurrentRequests"`
	PromPort              int    `json:"promPort"`
	PprofAddr             string `json:"pprofAddr"`
}

func defaultConfig() config {
	return config{
		Address:               defaultAddress,
		Value:                 42,
		Backing:               "anonymous",
		MaxConcurrentRequests: 4,
	}
}

// loadConfig overlays the YAML file at path onto cfg.
func loadConfig(path string, cfg *config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *config) target() (uintptr, error) {
	addr, err := strconv.ParseUint(c.Address, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", c.Address)
	}
	if uint64(uintptr(addr)) != addr {
		return 0, fmt.Errorf("address %q does not fit in a pointer", c.Address)
	}
	return uintptr(addr), nil
}

func (c *config) options() (fixmem.Options, error) {
	opts := fixmem.Options{Exact: c.Exact}
	switch c.Backing {
	case "", "anonymous":
		opts.Backing = fixmem.BackingAnonymous
	case "zero-device":
		opts.Backing = fixmem.BackingZeroDevice
	default:
		return opts, fmt.Errorf("unknown backing %q", c.Backing)
	}
	return opts, nil
}
