// Package handles maps small integer handles to strong shared.Ptr values.
//
// A Table owns one strong reference per slot. It is useful where a pointer
// cannot be handed out directly, such as across a text protocol or a
// foreign function boundary: the peer holds a Handle, the table holds the
// reference, and the object stays alive until the slot is removed.
//
// Handle 0 is reserved and always invalid. Freed handles are reused, most
// recently freed first.
//
//	tbl := handles.NewTable[Conn]()
//	h, err := tbl.Insert(&conn) // takes over conn's reference
//	...
//	if p, ok := tbl.Get(h); ok {
//	    defer p.Reset()
//	    use(p.Get())
//	}
//	tbl.Remove(h)
package handles
