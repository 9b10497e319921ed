package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type bankReg struct {
	offset uint16
	regPtr any
}

type tagOpts map[string]string

func parseTag(tag string) tagOpts {
	opts := make(tagOpts)
	for _, kv := range strings.Split(tag, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		opts[k] = v
	}
	return opts
}

func (o tagOpts) uint(key string, def uint64) (uint64, error) {
	s, ok := o[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, nil
}

// cbName returns the method name bound to the rcb/wcb/pcb option, or the
// empty string if the option is absent.
func (o tagOpts) cbName(opt, prefix, field string) string {
	name, ok := o[opt]
	if !ok {
		return ""
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	return name
}

func structOf(ptr any) (reflect.Value, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("hwio: %T is not a pointer to struct", ptr)
	}
	return v, nil
}

func method[T any](v reflect.Value, name string) (T, error) {
	var zero T
	m := v.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("hwio: missing method %s on %s", name, v.Type())
	}
	fn, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("hwio: method %s has signature %s, want %T", name, m.Type(), zero)
	}
	return fn, nil
}

// InitRegs initializes all Reg8/Mem/Device fields of the structure pointed to
// by ptr, according to their "hwio" struct tag. Besides offset and bank (see
// Table.MapBank), recognized options are:
//
//	reset=0x12      Reg8 initial value.
//	rwmask=0xF0     Reg8 writable bits (others are read-only).
//	size=0x800      Mem buffer size or Device range size.
//	vsize=0x2000    Mem mapped size (mirroring).
//	readonly        Read-only register, memory or device.
//	silent          Read-only memory silently ignores writes.
//	writeonly       Write-only register or device.
//	rcb[=Name]      Read callback; defaults to Read<FIELDNAME>.
//	wcb[=Name]      Write callback; defaults to Write<FIELDNAME>.
//	pcb[=Name]      Peek callback; defaults to Peek<FIELDNAME>.
func InitRegs(ptr any) error {
	v, err := structOf(ptr)
	if err != nil {
		return err
	}
	st := v.Elem()
	typ := st.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		fptr := st.Field(i).Addr().Interface()

		switch reg := fptr.(type) {
		case *Reg8:
			err = initReg8(v, field.Name, opts, reg)
		case *Mem:
			err = initMem(v, field.Name, opts, reg)
		case *Device:
			err = initDevice(v, field.Name, opts, reg)
		default:
			return fmt.Errorf("hwio: field %s has unsupported type %s", field.Name, field.Type)
		}
		if err != nil {
			return fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}
	}
	return nil
}

func MustInitRegs(ptr any) {
	if err := InitRegs(ptr); err != nil {
		panic(err)
	}
}

func rwFlags(opts tagOpts) RWFlags {
	var flags RWFlags
	if _, ok := opts["readonly"]; ok {
		flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		flags |= WriteOnlyFlag
	}
	return flags
}

func initReg8(v reflect.Value, name string, opts tagOpts, reg *Reg8) error {
	reset, err := opts.uint("reset", 0)
	if err != nil {
		return err
	}
	rwmask, err := opts.uint("rwmask", 0xff)
	if err != nil {
		return err
	}

	reg.Name = name
	reg.Value = uint8(reset)
	reg.RoMask = ^uint8(rwmask)
	reg.Flags = rwFlags(opts)

	if n := opts.cbName("rcb", "Read", name); n != "" {
		if reg.ReadCb, err = method[func(uint8) uint8](v, n); err != nil {
			return err
		}
	}
	if n := opts.cbName("wcb", "Write", name); n != "" {
		if reg.WriteCb, err = method[func(uint8, uint8)](v, n); err != nil {
			return err
		}
	}
	if n := opts.cbName("pcb", "Peek", name); n != "" {
		if reg.PeekCb, err = method[func(uint8) uint8](v, n); err != nil {
			return err
		}
	}
	return nil
}

func initMem(v reflect.Value, name string, opts tagOpts, m *Mem) error {
	size, err := opts.uint("size", 0)
	if err != nil {
		return err
	}
	vsize, err := opts.uint("vsize", size)
	if err != nil {
		return err
	}

	m.Name = name
	if size != 0 && len(m.Data) != int(size) {
		m.Data = make([]byte, size)
	}
	m.VSize = int(vsize)
	if m.VSize == 0 {
		m.VSize = len(m.Data)
	}
	if rwFlags(opts)&ReadOnlyFlag != 0 {
		m.Flags |= MemFlag8ReadOnly
	}
	if _, ok := opts["silent"]; ok {
		m.Flags |= MemFlagNoROLog
	}
	if n := opts.cbName("wcb", "Write", name); n != "" {
		if m.WriteCb, err = method[func(uint16, uint8)](v, n); err != nil {
			return err
		}
	}
	return nil
}

func initDevice(v reflect.Value, name string, opts tagOpts, d *Device) error {
	size, err := opts.uint("size", 1)
	if err != nil {
		return err
	}

	d.Name = name
	d.Size = int(size)
	d.Flags = rwFlags(opts)

	if n := opts.cbName("rcb", "Read", name); n != "" {
		if d.ReadCb, err = method[func(uint16) uint8](v, n); err != nil {
			return err
		}
	}
	if n := opts.cbName("wcb", "Write", name); n != "" {
		if d.WriteCb, err = method[func(uint16, uint8)](v, n); err != nil {
			return err
		}
	}
	if n := opts.cbName("pcb", "Peek", name); n != "" {
		if d.PeekCb, err = method[func(uint16) uint8](v, n); err != nil {
			return err
		}
	}
	return nil
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v, err := structOf(bank)
	if err != nil {
		return nil, err
	}
	st := v.Elem()
	typ := st.Type()

	var regs []bankReg
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		if _, ok := opts["offset"]; !ok {
			continue
		}
		num, err := opts.uint("bank", 0)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}
		if int(num) != bankNum {
			continue
		}
		off, err := opts.uint("offset", 0)
		if err != nil {
			return nil, fmt.Errorf("hwio: field %s: %w", field.Name, err)
		}
		regs = append(regs, bankReg{
			offset: uint16(off),
			regPtr: st.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
