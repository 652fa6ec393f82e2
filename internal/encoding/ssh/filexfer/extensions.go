package filexfer

// ExtensionPair is a single (name, data) extension announced during the
// version handshake, per draft-ietf-secsh-filexfer-02 section 4.
type ExtensionPair struct {
	Name string
	Data string
}

// Len returns the number of bytes MarshalInto will append.
func (e *ExtensionPair) Len() int {
	return 4 + len(e.Name) + 4 + len(e.Data)
}

// MarshalInto marshals e onto the end of buf.
func (e *ExtensionPair) MarshalInto(buf *Buffer) {
	buf.AppendString(e.Name)
	buf.AppendString(e.Data)
}

// UnmarshalFrom unmarshals an ExtensionPair from buf into e.
func (e *ExtensionPair) UnmarshalFrom(buf *Buffer) (err error) {
	if e.Name, err = buf.ConsumeString(); err != nil {
		return err
	}
	e.Data, err = buf.ConsumeString()
	return err
}
