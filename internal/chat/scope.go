package chat

// Scope is the conversation context currently rendered: the public
// lobby or one direct peer. The zero value is the public scope.
type Scope struct {
	other string
}

// Public returns the public lobby scope.
func Public() Scope {
	return Scope{}
}

// Direct returns the scope of a one-to-one conversation with the given
// participant.
func Direct(other string) Scope {
	return Scope{other: other}
}

// IsPublic reports whether the scope is the public lobby.
func (s Scope) IsPublic() bool {
	return s.other == ""
}

// IsDirect reports whether the scope is a one-to-one conversation.
func (s Scope) IsDirect() bool {
	return s.other != ""
}

// Other returns the direct peer, or "" for the public scope.
func (s Scope) Other() string {
	return s.other
}

func (s Scope) String() string {
	if s.other == "" {
		return "public"
	}
	return "direct:" + s.other
}
