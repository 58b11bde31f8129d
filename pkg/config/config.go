// Package config provides the generic key/value accessor used to overlay
// environment variables onto the YAML-loaded configuration, so secrets
// never need to live in a committed file.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Overlay reads environment-variable overrides for a given key.
type Overlay interface {
	GetString(key string) string
	IsSet(key string) bool
}

type viperOverlay struct {
	v *viper.Viper
}

// NewEnvOverlay builds an overlay that reads SERVICE_SECTION_FIELD style
// environment variables (e.g. CLEANCO_POSTGRES_PASSWORD) over the given
// service name prefix.
func NewEnvOverlay(servicePrefix string) Overlay {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(servicePrefix))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return &viperOverlay{v: v}
}

func (o *viperOverlay) GetString(key string) string { return o.v.GetString(key) }
func (o *viperOverlay) IsSet(key string) bool        { return o.v.IsSet(key) }

// ApplyString returns the overlay's value for key if set, else fallback.
func ApplyString(o Overlay, key, fallback string) string {
	if o != nil && o.IsSet(key) {
		return o.GetString(key)
	}
	return fallback
}
