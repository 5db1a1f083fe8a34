package dapclient

import "reflect"

// fieldByName finds a promoted field anywhere in msg's embedded struct
// chain, the way google/go-dap's own (un)marshaling code walks
// ProtocolMessage. It is only safe to use for field names that cannot
// collide with an embedded type's own field name at a shallower depth
// (Seq, RequestSeq, Command all qualify: no go-dap message type embeds a
// struct literally named "Seq", "RequestSeq" or "Command"). The event name
// is deliberately NOT read this way: every concrete event type embeds a
// field named "Event" (type dap.Event) that itself contains the string
// field "Event", so FieldByName("Event") always resolves to the shallower
// struct field first; dispatchLoop instead reads it off dap.EventMessage's
// GetEvent() accessor.
func fieldByName(msg interface{}, name string) reflect.Value {
	v := reflect.ValueOf(msg)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return v.FieldByName(name)
}

func setSeq(msg interface{}, seq int) {
	f := fieldByName(msg, "Seq")
	if f.IsValid() && f.CanSet() {
		f.SetInt(int64(seq))
	}
}

func getSeq(msg interface{}) int {
	f := fieldByName(msg, "Seq")
	if f.IsValid() {
		return int(f.Int())
	}
	return 0
}

func getRequestSeq(msg interface{}) int {
	f := fieldByName(msg, "RequestSeq")
	if f.IsValid() {
		return int(f.Int())
	}
	return 0
}

func getCommand(msg interface{}) string {
	f := fieldByName(msg, "Command")
	if f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return ""
}
