// Package config implements the session manager's property store: an
// immutable global layer loaded once at startup from viper (config file,
// environment overlay under the OGON_ prefix) plus a mutable per-session
// overlay that always shadows it.
package config

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Store answers getPropertyBool/Number/String(sessionId, path) lookups,
// checking the per-session overlay before falling back to the global
// snapshot. The zero value is not usable; construct with Load.
type Store struct {
	global *viper.Viper

	mu       sync.RWMutex
	sessions map[uint32]map[string]any
}

// Load reads the global defaults from configPath (if non-empty) and from the
// process environment (OGON_ prefix, "." replaced by "_"), and returns a
// Store ready to serve lookups. configPath may be empty; no config file is
// then read and no search path is consulted, leaving environment and defaults.
func Load(configPath string) (*Store, error) {
	v := viper.New()
	v.SetEnvPrefix("OGON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	setDefaults(v)

	return &Store{
		global:   v,
		sessions: make(map[uint32]map[string]any),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.timeout", 0)
	v.SetDefault("session.max_disconnected_duration", 0)
	v.SetDefault("remotecontrol.enabled", true)
}

// SetSessionProperty installs a per-session override, shadowing the global
// value for that sessionId until RemoveSession is called. Used both by
// administrative calls (sendMessage-style property pokes) and by module
// configuration applied at logon.
func (s *Store) SetSessionProperty(sessionID uint32, path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	overlay, ok := s.sessions[sessionID]
	if !ok {
		overlay = make(map[string]any)
		s.sessions[sessionID] = overlay
	}
	overlay[path] = value
}

// RemoveSession drops every per-session override for sessionID. Called when
// a session is destroyed so the overlay map does not grow unbounded.
func (s *Store) RemoveSession(sessionID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Store) lookup(sessionID uint32, path string) (any, bool) {
	s.mu.RLock()
	overlay, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		if v, ok := overlay[path]; ok {
			return v, true
		}
	}
	if !s.global.IsSet(path) {
		return nil, false
	}
	return s.global.Get(path), true
}

// GetPropertyBool reads path as a bool, checking the session overlay first.
// found is false if path is not set anywhere.
func (s *Store) GetPropertyBool(sessionID uint32, path string) (value bool, found bool) {
	v, ok := s.lookup(sessionID, path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	if !ok {
		return viperTruthy(v), true
	}
	return b, true
}

// GetPropertyNumber reads path as an int64, checking the session overlay
// first. found is false if path is not set anywhere.
func (s *Store) GetPropertyNumber(sessionID uint32, path string) (value int64, found bool) {
	v, ok := s.lookup(sessionID, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, true
	}
}

// GetPropertyString reads path as a string, checking the session overlay
// first. found is false if path is not set anywhere.
func (s *Store) GetPropertyString(sessionID uint32, path string) (value string, found bool) {
	v, ok := s.lookup(sessionID, path)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	if !ok {
		return "", true
	}
	return str, true
}

func viperTruthy(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return s == "true" || s == "1" || s == "yes"
}
