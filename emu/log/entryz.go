package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

// EntryZ is an allocation-free builder for structured log entries. Obtain one
// from a Module (DebugZ/InfoZ/...), chain field calls, then End() to emit.
// A nil *EntryZ is valid and all methods on it are no-ops, so the disabled
// path costs a single mask check.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [16]ZField
	zfidx int
}

var entryzPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryzPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (e *EntryZ) field(key string, typ FieldType) *ZField {
	if e.zfidx == len(e.zfbuf) {
		panic("too many fields in log entry")
	}
	f := &e.zfbuf[e.zfidx]
	e.zfidx++
	f.Key = key
	f.Type = typ
	return f
}

func (e *EntryZ) Bool(key string, val bool) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeBool).Boolean = val
	}
	return e
}

func (e *EntryZ) String(key string, val string) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeString).String = val
	}
	return e
}

func (e *EntryZ) Int(key string, val int) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeInt).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Int64(key string, val int64) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeInt).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Uint8(key string, val uint8) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeUint).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Uint16(key string, val uint16) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeUint).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Uint32(key string, val uint32) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeUint).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Uint64(key string, val uint64) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeUint).Integer = val
	}
	return e
}

func (e *EntryZ) Hex8(key string, val uint8) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeHex8).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Hex16(key string, val uint16) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeHex16).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Hex32(key string, val uint32) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeHex32).Integer = uint64(val)
	}
	return e
}

func (e *EntryZ) Hex64(key string, val uint64) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeHex64).Integer = val
	}
	return e
}

func (e *EntryZ) Error(key string, err error) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeError).Error = err
	}
	return e
}

func (e *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeDuration).Duration = d
	}
	return e
}

func (e *EntryZ) Stringer(key string, val fmt.Stringer) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeStringer).Interface = val
	}
	return e
}

func (e *EntryZ) Blob(key string, val []byte) *EntryZ {
	if e != nil {
		e.field(key, FieldTypeBlob).Blob = val
	}
	return e
}

func (e *EntryZ) End() {
	if e == nil {
		return
	}

	for _, c := range contexts {
		c.AddLogContext(e)
	}

	fields := make(logrus.Fields, e.zfidx+1)
	fields["_mod"] = modNames[e.mod]
	for i := range e.zfbuf[:e.zfidx] {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}

	entry := logrus.StandardLogger().WithFields(fields)
	switch e.lvl {
	case DebugLevel:
		entry.Debug(e.msg)
	case InfoLevel:
		entry.Info(e.msg)
	case WarnLevel:
		entry.Warn(e.msg)
	case ErrorLevel:
		entry.Error(e.msg)
	case FatalLevel:
		entry.Fatal(e.msg)
	case PanicLevel:
		entry.Panic(e.msg)
	}
	entryzPool.Put(e)
}
