// Package brands maps template identifiers to brand-scoped constants:
// asset ranges, naming prefixes, storage folders and the publish
// account a video belongs to.
package brands

import (
	"strings"

	"astromatic/config"
)

// Config is the resolved brand for one pipeline run. Read-only after
// resolution.
type Config struct {
	ID          string
	DisplayName string
	AccountID   string

	StorageFolder string
	Prefix        Prefixes
	MaxAssets     Limits
	Tables        Tables
}

type Prefixes struct {
	Video string
	Audio string
}

type Limits struct {
	Videos int
	Audios int
}

type Tables struct {
	T1 string
	T2 string
}

// Resolver performs the template-id to brand lookup. Built once at
// startup from the environment; pure thereafter.
type Resolver struct {
	asfa Config
	mafa Config
}

// NewResolver wires account and table identifiers from env into the
// static brand registry.
func NewResolver(env *config.Env) *Resolver {
	return &Resolver{
		asfa: Config{
			ID:            "asfa",
			DisplayName:   "Astrología Familiar",
			AccountID:     env.IGUserID,
			StorageFolder: "AstrologiaFamiliar",
			Prefix:        Prefixes{Video: "ASFA_VID_", Audio: "ASFA_AUD_"},
			MaxAssets:     Limits{Videos: 28, Audios: 10},
			Tables:        Tables{T1: env.AsfaT1TableID, T2: env.AsfaT2TableID},
		},
		mafa: Config{
			ID:            "mafa",
			DisplayName:   "Manual Familiar",
			AccountID:     env.IGMafaUserID,
			StorageFolder: "ManualFamiliar",
			Prefix:        Prefixes{Video: "M_VID_", Audio: "M_AUD_"},
			MaxAssets:     Limits{Videos: 24, Audios: 4},
			Tables:        Tables{T1: env.MafaT1TableID, T2: env.MafaT2TableID},
		},
	}
}

// Resolve returns the brand for a template id. Template ids beginning
// with "mafa-" belong to the mafa brand; everything else falls back to
// the default brand.
func (r *Resolver) Resolve(templateID string) Config {
	if strings.HasPrefix(strings.ToLower(templateID), "mafa-") {
		return r.mafa
	}
	return r.asfa
}

// Table picks the content table for a template id, by its -t1/-t2
// suffix. Unknown suffixes use T1.
func (c Config) Table(templateID string) string {
	if strings.HasSuffix(strings.ToLower(templateID), "-t2") {
		return c.Tables.T2
	}
	return c.Tables.T1
}

// FourSegment reports whether a template carries the four-segment
// hook/problem/solution/cta shape. Two-segment templates carry
// hook/message.
func FourSegment(templateID string) bool {
	return strings.HasSuffix(strings.ToLower(templateID), "-t1")
}

// EndsWithCTA reports whether the template's final segment is a
// call-to-action that should linger on screen. Only those videos get
// tail frames appended.
func EndsWithCTA(templateID string) bool {
	return FourSegment(templateID)
}
