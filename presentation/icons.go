package presentation

import (
	"ocm.software/open-component-model/presentation/ref"
)

// Icon is an opaque handle understood by the rendering layer.
type Icon string

const (
	IconAPI       Icon = "kind:api"
	IconComponent Icon = "kind:component"
	IconDomain    Icon = "kind:domain"
	IconGroup     Icon = "kind:group"
	IconLocation  Icon = "kind:location"
	IconResource  Icon = "kind:resource"
	IconSystem    Icon = "kind:system"
	IconTemplate  Icon = "kind:template"
	IconUser      Icon = "kind:user"
	// IconUnknown is used for kinds missing from the table.
	IconUnknown Icon = "kind:unknown"
)

// kindIcons is keyed by case folded kind.
var kindIcons = map[string]Icon{
	"api":       IconAPI,
	"component": IconComponent,
	"domain":    IconDomain,
	"group":     IconGroup,
	"location":  IconLocation,
	"resource":  IconResource,
	"system":    IconSystem,
	"template":  IconTemplate,
	"user":      IconUser,
}

// IconForKind returns the icon registered for kind, or IconUnknown.
func IconForKind(kind string) Icon {
	if icon, ok := kindIcons[ref.Fold(kind)]; ok {
		return icon
	}
	return IconUnknown
}
