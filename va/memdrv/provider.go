// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdrv

import (
	"encoding/json"
	"fmt"

	"github.com/cnotch/vadec/va"
)

// Provider 内存驱动的后端提供者，配置示例：
//
//	{"provider": "memory", "config": {"profiles": ["H264Main", "H264High"], "surfaces": 24}}
var Provider = &provider{}

type provider struct {
	profiles []va.Profile
	surfaces int
}

var _ va.Backend = (*provider)(nil)

func (p *provider) Name() string {
	return "memory"
}

func (p *provider) Configure(config map[string]interface{}) error {
	p.profiles = nil
	p.surfaces = 0
	if config == nil {
		return nil
	}

	if v, ok := config["surfaces"]; ok {
		n, ok := v.(float64) // json 数字
		if !ok || n < 1 {
			return fmt.Errorf("surfaces must be a positive number, got %v", v)
		}
		p.surfaces = int(n)
	}

	if v, ok := config["profiles"]; ok {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var names []string
		if err = json.Unmarshal(raw, &names); err != nil {
			return fmt.Errorf("profiles must be a list of names; %v", err)
		}
		for _, name := range names {
			profile, err := va.ParseProfile(name)
			if err != nil {
				return err
			}
			p.profiles = append(p.profiles, profile)
		}
	}
	return nil
}

func (p *provider) NewDecoder() va.Decoder {
	var opts []Option
	if len(p.profiles) > 0 {
		opts = append(opts, WithProfiles(p.profiles...))
	}
	if p.surfaces > 0 {
		opts = append(opts, WithSurfaces(p.surfaces))
	}
	return New(opts...)
}
