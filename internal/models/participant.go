package models

// ParticipantKind distinguishes the variants of a Participant.
type ParticipantKind int

const (
	// KindNamed is a participant identified by a payment handle.
	KindNamed ParticipantKind = iota
	// KindMe is the payer. The payer is never charged.
	KindMe
	// KindEveryone defers an item to an even split across every charged participant.
	KindEveryone
)

const (
	// AliasMe is the literal that resolves to Me.
	AliasMe = "me"
	// AliasEveryone is the literal that resolves to Everyone.
	AliasEveryone = "everyone"
)

// Participant identifies who shares an item.
// Participants are comparable values: two participants are equal when their
// Kind and Handle are equal, so they can be used as map keys.
type Participant struct {
	Kind ParticipantKind

	// Handle is the payment handle. It is only set for KindNamed.
	Handle string
}

var (
	// Me is the payer.
	Me = Participant{Kind: KindMe}
	// Everyone is the deferred even split.
	Everyone = Participant{Kind: KindEveryone}
)

// Named returns a participant identified by handle.
func Named(handle string) Participant {
	return Participant{Kind: KindNamed, Handle: handle}
}

// IsMe reports whether p is the payer.
func (p Participant) IsMe() bool {
	return p.Kind == KindMe
}

// IsEveryone reports whether p is the everyone split.
func (p Participant) IsEveryone() bool {
	return p.Kind == KindEveryone
}

func (p Participant) String() string {
	switch p.Kind {
	case KindMe:
		return "Me"
	case KindEveryone:
		return "Everyone"
	default:
		return p.Handle
	}
}

// ResolveParticipant normalizes a raw participant label.
// The label is looked up in aliases (falling back to the label itself), then
// "me" maps to Me, "everyone" maps to Everyone and anything else is Named.
func ResolveParticipant(aliases map[string]string, raw string) Participant {
	handle, ok := aliases[raw]
	if !ok {
		handle = raw
	}
	switch handle {
	case AliasMe:
		return Me
	case AliasEveryone:
		return Everyone
	default:
		return Named(handle)
	}
}
