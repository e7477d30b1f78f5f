package universe

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/sabot/language"
	"github.com/chazu/sabot/registry"
	"github.com/chazu/sabot/state"
)

func seeded(t *testing.T, seed uint64) *Universe {
	t.Helper()
	u, err := New(Config{Seed: &seed})
	require.NoError(t, err)
	return u
}

func TestSeededUniverse(t *testing.T) {
	u := seeded(t, 42)
	assert.Equal(t, uint64(42), u.Random().Seed())
}

func TestKernelLifecycle(t *testing.T) {
	u := seeded(t, 1)

	id := u.CreateKernel()
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, uint64(2), u.CreateKernel())

	assert.True(t, u.DeleteKernel(id))
	assert.False(t, u.DeleteKernel(id))
}

func TestCompileMacroAndResolve(t *testing.T) {
	u := seeded(t, 1)
	kid := u.CreateKernel()

	mid, err := u.CompileMacro(kid, language.ChpextName, []byte("x 0"), '\n')
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mid)

	prog, err := u.Macro(kid, mid)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Len())
}

func TestCompileMacroMissingKernel(t *testing.T) {
	u := seeded(t, 1)
	_, err := u.CompileMacro(9, language.ChpextName, []byte("x 0"), '\n')
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestCompileMacroBadText(t *testing.T) {
	u := seeded(t, 1)
	kid := u.CreateKernel()
	_, err := u.CompileMacro(kid, language.ChpextName, []byte("frob 1"), '\n')
	assert.ErrorIs(t, err, language.ErrUnknownMnemonic)
}

func TestMacroMissing(t *testing.T) {
	u := seeded(t, 1)
	kid := u.CreateKernel()
	_, err := u.Macro(kid, 5)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestCompileProgramUnknownDialect(t *testing.T) {
	u := seeded(t, 1)
	_, err := u.CompileProgram("esperanto", []byte("x 0"), '\n')
	assert.ErrorIs(t, err, language.ErrUnknownDialect)
}

func TestInterpreterLazyAndCached(t *testing.T) {
	u := seeded(t, 1)

	a, err := u.Interpreter(language.ChpextName)
	require.NoError(t, err)
	b, err := u.Interpreter(language.ChpextName)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSystemAndStateLifecycle(t *testing.T) {
	u := seeded(t, 7)

	sid, err := u.CreateSystem(state.CHPName)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sid)

	stid, err := u.CreateState(sid, language.ChpextName, []byte("init 2"), '\n')
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stid)

	require.NoError(t, u.ModifyState(sid, stid, language.ChpextName, []byte("x 0\nc 0,1"), '\n'))

	var buf bytes.Buffer
	require.NoError(t, u.MeasureState(sid, stid, language.ChpextName, []byte("m 0\nm 1"), '\n', &buf))
	assert.Equal(t, "11", buf.String())

	ok, err := u.DeleteState(sid, stid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = u.DeleteState(sid, stid)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, u.DeleteSystem(sid))
	assert.False(t, u.DeleteSystem(sid))
}

func TestCreateSystemUnknownType(t *testing.T) {
	u := seeded(t, 1)
	_, err := u.CreateSystem("no_such_type")
	assert.ErrorIs(t, err, state.ErrUnknownType)
}

func TestStateOpsOnMissingSystem(t *testing.T) {
	u := seeded(t, 1)

	_, err := u.CreateState(3, language.ChpextName, []byte("init 1"), '\n')
	assert.ErrorIs(t, err, registry.ErrNotFound)

	err = u.ModifyState(3, 1, language.ChpextName, []byte("x 0"), '\n')
	assert.ErrorIs(t, err, registry.ErrNotFound)

	var buf bytes.Buffer
	err = u.MeasureState(3, 1, language.ChpextName, []byte("m 0"), '\n', &buf)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = u.DeleteState(3, 1)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	err = u.ComputeResult(3, language.ChpextName, []byte("init 1\nm 0"), '\n', &buf)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestComputeResultStoresNothing(t *testing.T) {
	u := seeded(t, 3)
	sid, err := u.CreateSystem(state.CHPName)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, u.ComputeResult(sid, language.ChpextName, []byte("init 2\nx 0\nm 0\nm 1"), '\n', &buf))
	assert.Equal(t, "10", buf.String())

	sys, err := u.systems.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sys.Type().StateCount())
}

func TestMacroThroughState(t *testing.T) {
	u := seeded(t, 5)
	kid := u.CreateKernel()
	mid, err := u.CompileMacro(kid, language.ChpextName, []byte("x 0\nc 0,1"), '\n')
	require.NoError(t, err)

	sid, err := u.CreateSystem(state.CHPName)
	require.NoError(t, err)

	text := []byte(fmt.Sprintf("init 2\nmacro %d,%d\nm 0\nm 1", kid, mid))
	var buf bytes.Buffer
	require.NoError(t, u.ComputeResult(sid, language.ChpextName, text, '\n', &buf))
	assert.Equal(t, "11", buf.String())
}

func TestConcurrentStateOps(t *testing.T) {
	u := seeded(t, 9)
	sid, err := u.CreateSystem(state.CHPName)
	require.NoError(t, err)

	var ids []uint64
	for i := 0; i < 8; i++ {
		id, err := u.CreateState(sid, language.ChpextName, []byte("init 4"), '\n')
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, u.ModifyState(sid, id, language.ChpextName, []byte("x 0\nx 0"), '\n'))
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		var buf bytes.Buffer
		require.NoError(t, u.MeasureState(sid, id, language.ChpextName, []byte("m 0"), '\n', &buf))
		assert.Equal(t, "0", buf.String())
	}
}
