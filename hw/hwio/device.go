package hwio

// Device is a BankIO8 handing every access of an address range to
// callbacks. Missing callbacks read as 0 and ignore writes.
type Device struct {
	Name  string
	Size  int
	Flags RWFlags

	ReadCb  func(addr uint16) uint8
	PeekCb  func(addr uint16) uint8
	WriteCb func(addr uint16, val uint8)
}

func (d *Device) Read8(addr uint16) uint8 {
	if d.Flags.denied(false, "device", d.Name, addr) || d.ReadCb == nil {
		return 0
	}
	return d.ReadCb(addr)
}

func (d *Device) Peek8(addr uint16) uint8 {
	if d.PeekCb == nil {
		return 0
	}
	return d.PeekCb(addr)
}

func (d *Device) Write8(addr uint16, val uint8) {
	if d.Flags.denied(true, "device", d.Name, addr) || d.WriteCb == nil {
		return
	}
	d.WriteCb(addr, val)
}
