package grid

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
)

// Validate checks that every node and thermal bus reference resolves within
// the container and that every primary series belongs to a participant.
// Every unresolved reference is reported as a *ReferentialError, joined
// with errors.Join.
func (ct *Container) Validate() error {
	targets := map[models.EntityType]func(uuid.UUID) bool{
		models.EntityTypeNode:       ct.c.Nodes.Contains,
		models.EntityTypeThermalBus: ct.c.ThermalBuses.Contains,
	}
	var errs []error
	for _, c := range ct.ToList(false) {
		et := c.EntityType()
		c.EachRef(func(row uuid.UUID, ref models.Ref) {
			contains, ok := targets[ref.Target]
			if ok && contains(ref.UUID) {
				return
			}
			errs = append(errs, &ReferentialError{Source: et, Row: row, Field: ref.Field, Target: ref.Target, Missing: ref.UUID})
		})
	}

	for _, id := range ct.c.Primary.UUIDs() {
		if !ct.isParticipant(id) {
			errs = append(errs, &ReferentialError{Source: "primary", Row: id, Field: "uuid", Target: "participant", Missing: id})
		}
	}
	return errors.Join(errs...)
}

func (ct *Container) isParticipant(id uuid.UUID) bool {
	for _, c := range ct.Participants() {
		if c.Contains(id) {
			return true
		}
	}
	return false
}
