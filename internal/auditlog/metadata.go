package auditlog

import "context"

// Metadata is what a command learns about its run while executing. It
// travels on the command context until the entry is written.
type Metadata struct {
	Profile     string
	SubjectType string
	SubjectID   string
	SubjectName string
	ActionKind  string
	ActionID    string
	ActionState string
}

type metadataKey struct{}

// WithMetadata returns ctx carrying meta layered over what ctx already
// holds. Empty fields keep their earlier value.
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, metadataKey{}, MetadataFromContext(ctx).merge(meta))
}

// MetadataFromContext returns the metadata stored on ctx.
func MetadataFromContext(ctx context.Context) Metadata {
	if ctx == nil {
		return Metadata{}
	}
	meta, _ := ctx.Value(metadataKey{}).(Metadata)
	return meta
}

func (m Metadata) merge(next Metadata) Metadata {
	keep(&m.Profile, next.Profile)
	keep(&m.SubjectType, next.SubjectType)
	keep(&m.SubjectID, next.SubjectID)
	keep(&m.SubjectName, next.SubjectName)
	keep(&m.ActionKind, next.ActionKind)
	keep(&m.ActionID, next.ActionID)
	keep(&m.ActionState, next.ActionState)
	return m
}

func keep(dst *string, next string) {
	if next != "" {
		*dst = next
	}
}
