package patch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/oisee/oscgen/pkg/note"
)

// Error reports a failure while loading or running a patch file
type Error struct {
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("patch %s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Script is a loaded Lua patch. Custom generators call back into the Lua
// state, so it must stay open for the whole run and is not safe for
// concurrent use.
type Script struct {
	Name   string
	Config *RunConfig

	L       *lua.LState
	loadErr error // typed error raised from a Go builtin
	runErr  error // first failure of a custom generator
}

// LoadFile runs the patch at path
func LoadFile(path string) (*Script, error) {
	s := newScript(path)
	if err := s.L.DoFile(path); err != nil {
		return nil, s.abort(err)
	}
	return s.finish()
}

// LoadString runs patch source held in memory; name is used in errors
func LoadString(name, src string) (*Script, error) {
	s := newScript(name)
	if err := s.L.DoString(src); err != nil {
		return nil, s.abort(err)
	}
	return s.finish()
}

// Close releases the Lua state
func (s *Script) Close() {
	if s.L != nil {
		s.L.Close()
	}
}

// Err returns the first runtime failure of a custom generator
func (s *Script) Err() error {
	if s.runErr == nil {
		return nil
	}
	return &Error{File: s.Name, Err: s.runErr}
}

func newScript(name string) *Script {
	s := &Script{
		Name:   name,
		Config: &RunConfig{Generators: make(map[string]func(float64) float64)},
		L:      lua.NewState(),
	}

	builtins := map[string]lua.LGFunction{
		"rate":      s.luaRate,
		"length":    s.luaLength,
		"output":    s.luaOutput,
		"container": s.luaContainer,
		"define":    s.luaDefine,
		"wave":      s.luaWave,
		"note":      s.luaNote,
		"octave":    luaOctaves,
		"octaves":   luaOctaves,
	}
	for name, fn := range builtins {
		s.L.SetGlobal(name, s.L.NewFunction(fn))
	}
	return s
}

func (s *Script) abort(err error) error {
	s.Close()
	// A typed error caught by pcall must not mask a later failure
	if s.loadErr != nil && strings.Contains(err.Error(), s.loadErr.Error()) {
		err = s.loadErr
	}
	return &Error{File: s.Name, Err: err}
}

// finish probes every custom generator over one cycle so that broken
// functions are reported before any sample is written.
func (s *Script) finish() (*Script, error) {
	names := make([]string, 0, len(s.Config.Generators))
	for name := range s.Config.Generators {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := s.Config.Generators[name]
		for phase := 0.0; phase < 360; phase += 15 {
			fn(phase)
			if s.runErr != nil {
				return nil, s.abort(s.runErr)
			}
		}
	}
	return s, nil
}

// raise records a typed error and aborts the running chunk
func (s *Script) raise(L *lua.LState, err error) int {
	s.loadErr = err
	L.RaiseError("%s", err.Error())
	return 0
}

func (s *Script) luaRate(L *lua.LState) int {
	rate := L.CheckInt(1)
	if rate <= 0 {
		L.ArgError(1, "rate must be positive")
	}
	s.Config.SampleRate = rate
	return 0
}

func (s *Script) luaLength(L *lua.LState) int {
	length := float64(L.CheckNumber(1))
	if length <= 0 || math.IsInf(length, 0) || math.IsNaN(length) {
		L.ArgError(1, "length must be a positive number of seconds")
	}
	s.Config.Length = length
	return 0
}

func (s *Script) luaOutput(L *lua.LState) int {
	s.Config.Output = L.CheckString(1)
	return 0
}

func (s *Script) luaContainer(L *lua.LState) int {
	c, err := ParseContainer(L.CheckString(1))
	if err != nil {
		return s.raise(L, err)
	}
	s.Config.Container = c
	return 0
}

func (s *Script) luaDefine(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	s.Config.Generators[name] = s.waveform(name, fn)
	return 0
}

// waveform adapts a Lua function to a phase -> amplitude function
func (s *Script) waveform(name string, fn *lua.LFunction) func(float64) float64 {
	return func(phase float64) float64 {
		err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(phase))
		if err != nil {
			s.fail(fmt.Errorf("generator %q: %w", name, err))
			return 0
		}
		ret := s.L.Get(-1)
		s.L.Pop(1)

		n, ok := ret.(lua.LNumber)
		if !ok {
			s.fail(fmt.Errorf("generator %q returned %s, want number", name, ret.Type()))
			return 0
		}
		return math.Max(-1, math.Min(1, float64(n)))
	}
}

func (s *Script) fail(err error) {
	if s.runErr == nil {
		s.runErr = err
	}
}

func (s *Script) luaWave(L *lua.LState) int {
	tbl := L.CheckTable(1)
	w := WaveSpec{Frequency: DefaultFrequency}

	gen := tbl.RawGetString("type")
	if gen == lua.LNil {
		gen = tbl.RawGetString("generator")
	}
	if gen.Type() != lua.LTString {
		L.ArgError(1, "wave needs a type")
	}
	w.Generator = gen.String()

	switch freq := tbl.RawGetString("frequency"); freq.Type() {
	case lua.LTNil:
	case lua.LTNumber:
		w.Frequency = float64(freq.(lua.LNumber))
	case lua.LTString:
		expr, err := note.Parse(freq.String())
		if err != nil {
			return s.raise(L, err)
		}
		hz, err := note.Resolve(expr)
		if err != nil {
			return s.raise(L, err)
		}
		w.Frequency = hz
		w.Note = expr
	default:
		L.ArgError(1, "frequency must be a number or a note expression")
	}

	switch offset := tbl.RawGetString("offset"); offset.Type() {
	case lua.LTNil:
	case lua.LTNumber:
		w.Offset = float64(offset.(lua.LNumber))
	default:
		L.ArgError(1, "offset must be a number of degrees")
	}

	s.Config.Waves = append(s.Config.Waves, w)
	return 0
}

// luaNote resolves note("mi", "flat", octaves(1)) to a frequency
func (s *Script) luaNote(L *lua.LState) int {
	var expr note.Expression
	for i := 1; i <= L.GetTop(); i++ {
		switch v := L.Get(i); v.Type() {
		case lua.LTNumber:
			expr = append(expr, note.Offset(int(v.(lua.LNumber))))
		case lua.LTString:
			tok, err := note.ParseToken(strings.TrimPrefix(v.String(), ":"))
			if err != nil {
				return s.raise(L, err)
			}
			expr = append(expr, tok)
		default:
			L.ArgError(i, "note tokens must be strings or numbers")
		}
	}

	hz, err := note.Resolve(expr)
	if err != nil {
		return s.raise(L, err)
	}
	L.Push(lua.LNumber(hz))
	return 1
}

func luaOctaves(L *lua.LState) int {
	L.Push(lua.LNumber(note.Octaves(L.CheckInt(1))))
	return 1
}

// IsLoadError reports whether err came from a patch file
func IsLoadError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
