package scene

import "fmt"

// ValidationSeverity indicates whether a finding makes the document
// unusable or is advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // document is inconsistent
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	UUID     string // offending record, empty for document-level findings
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.UUID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.UUID, e.Message)
}

// Validate checks the document for structural problems. It never mutates
// d. An empty result means the document is consistent.
func Validate(d *SceneData) []ValidationError {
	var errs []ValidationError
	ids := make(map[string]*Record)
	errs = append(errs, validateRecords(d, ids)...)
	errs = append(errs, validateConnections(d, ids)...)
	errs = append(errs, validateGateways(d, ids)...)
	return errs
}

// Errors filters findings down to error severity.
func Errors(findings []ValidationError) []ValidationError {
	var out []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// validateRecords checks UUID uniqueness, cached box orientation and
// objects sitting below the ground plane. It fills ids as it goes.
func validateRecords(d *SceneData, ids map[string]*Record) []ValidationError {
	var errs []ValidationError
	d.Root().Walk(func(rec, parent *Record) {
		if rec.UUID == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("record %q has no uuid", rec.Name),
				Severity: SeverityError,
			})
			return
		}
		if _, dup := ids[rec.UUID]; dup {
			errs = append(errs, ValidationError{
				UUID:     rec.UUID,
				Message:  "duplicate uuid",
				Severity: SeverityError,
			})
		} else {
			ids[rec.UUID] = rec
		}
		if bb := rec.UserData.WorldBoundingBox; bb != nil {
			for i := 0; i < 3; i++ {
				if bb.Min[i] > bb.Max[i] {
					errs = append(errs, ValidationError{
						UUID:     rec.UUID,
						Message:  fmt.Sprintf("world bounding box inverted on axis %c: min %g > max %g", "xyz"[i], bb.Min[i], bb.Max[i]),
						Severity: SeverityError,
					})
					break
				}
			}
		}
		// Only top-level objects sit on the ground; children are relative.
		if parent == d.Scene.Object && rec.Position[1] < 0 && rec.UserData.ComponentType.Transformable() {
			errs = append(errs, ValidationError{
				UUID:     rec.UUID,
				Message:  fmt.Sprintf("object is below ground (y=%g)", rec.Position[1]),
				Severity: SeverityWarning,
			})
		}
	})
	return errs
}

// validateConnections checks that every connection joins two distinct,
// existing records and that no pair is connected twice in either
// direction.
func validateConnections(d *SceneData, ids map[string]*Record) []ValidationError {
	var errs []ValidationError
	seen := make(map[ConnectionKey]int)
	for i, c := range d.Connections {
		if c.From == c.To {
			errs = append(errs, ValidationError{
				UUID:     c.From,
				Message:  fmt.Sprintf("connection %d connects an object to itself", i),
				Severity: SeverityError,
			})
			continue
		}
		for _, end := range []string{c.From, c.To} {
			if _, ok := ids[end]; !ok {
				errs = append(errs, ValidationError{
					UUID:     end,
					Message:  fmt.Sprintf("connection %d (%s) references a missing object", i, c),
					Severity: SeverityError,
				})
			}
		}
		k := c.Key()
		if first, dup := seen[k]; dup {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("connection %d (%s) duplicates connection %d", i, c, first),
				Severity: SeverityError,
			})
			continue
		}
		seen[k] = i
	}
	return errs
}

// validateGateways flags gateways that no connection passes through.
func validateGateways(d *SceneData, ids map[string]*Record) []ValidationError {
	var errs []ValidationError
	for uuid, rec := range ids {
		if rec.UserData.ComponentType != ComponentGateway {
			continue
		}
		used := false
		for _, c := range d.Connections {
			if c.Touches(uuid) {
				used = true
				break
			}
		}
		if !used {
			errs = append(errs, ValidationError{
				UUID:     uuid,
				Message:  "gateway has no connections",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
