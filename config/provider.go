// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProviderNotFound 没有匹配的提供者
var ErrProviderNotFound = errors.New("provider not found")

// Provider 提供者接口
type Provider interface {
	Name() string
	Configure(config map[string]interface{}) error
}

// ProviderConfig 可扩展提供者配置
type ProviderConfig struct {
	Provider string                 `json:"provider"`         // 提供者类型，忽略大小写
	Config   map[string]interface{} `json:"config,omitempty"` // 提供者配置
}

// Load 在内置提供者中查找并配置
func (c *ProviderConfig) Load(builtins ...Provider) (Provider, error) {
	names := make([]string, 0, len(builtins))
	for _, builtin := range builtins {
		if strings.EqualFold(builtin.Name(), c.Provider) {
			if err := builtin.Configure(c.Config); err != nil {
				return nil, fmt.Errorf("configure provider %q: %w", c.Provider, err)
			}
			return builtin, nil
		}
		names = append(names, builtin.Name())
	}

	return nil, fmt.Errorf("load provider %q (available: %s): %w",
		c.Provider, strings.Join(names, ", "), ErrProviderNotFound)
}

// LoadProvider 加载提供者，未配置时使用第一个内置提供者的默认配置
func LoadProvider(config *ProviderConfig, providers ...Provider) (Provider, error) {
	if len(providers) == 0 {
		return nil, ErrProviderNotFound
	}
	if config == nil || config.Provider == "" {
		config = &ProviderConfig{
			Provider: providers[0].Name(),
		}
	}
	return config.Load(providers...)
}
