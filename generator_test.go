package pmpiwrap_test

import (
	"bytes"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardream/pmpiwrap"
	"github.com/fardream/pmpiwrap/mpi"
	"github.com/fardream/pmpiwrap/tmpl"
)

func table(t *testing.T, decls ...[2]string) mpi.Table {
	t.Helper()
	tbl := mpi.Table{}
	for _, d := range decls {
		decl, err := mpi.ParseDeclaration("int", d[0], d[1])
		require.NoError(t, err)
		tbl.Add(decl)
	}
	return tbl
}

func generate(t *testing.T, cfg pmpiwrap.Config, tbl mpi.Table, templates ...string) (string, error) {
	t.Helper()
	g := pmpiwrap.New(cfg, tbl)

	var buf bytes.Buffer
	for i, text := range templates {
		if err := g.Process(&buf, "template"+string(rune('0'+i)), strings.NewReader(text)); err != nil {
			return buf.String(), err
		}
	}
	return buf.String(), nil
}

func assertInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	rest := s
	for _, p := range parts {
		i := strings.Index(rest, p)
		if !assert.GreaterOrEqual(t, i, 0, "missing %q (in order) in:\n%s", p, s) {
			return
		}
		rest = rest[i+len(p):]
	}
}

func TestBarrierWrapper(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Barrier", "MPI_Comm comm"})

	out, err := generate(t, pmpiwrap.Config{}, tbl, "{{fn f MPI_Barrier}}before{{callfn}};after{{endfn}}")
	require.NoError(t, err)

	assert.Equal(t, "int MPI_Barrier(MPI_Comm comm) {\n"+
		"    int return_val = 0;\n"+
		"before"+
		"return_val = PMPI_Barrier(comm);"+
		";after"+
		"    return return_val;\n"+
		"}\n\n", out)
}

func TestForeachfnBindings(t *testing.T) {
	tbl := table(t,
		[2]string{"MPI_Send", "const void *buf, int count, MPI_Datatype datatype, int dest, int tag, MPI_Comm comm"},
		[2]string{"MPI_Barrier", "MPI_Comm comm"},
	)

	out, err := generate(t, pmpiwrap.Config{}, tbl,
		"{{foreachfn name MPI_Barrier MPI_Send}}{{fn_num}}:{{retType}} {{name}}{{argTypeList}} -> {{argList}}\n{{endforeachfn}}")
	require.NoError(t, err)

	assert.Equal(t,
		"0:int MPI_Barrier(MPI_Comm comm) -> (comm)\n"+
			"1:int MPI_Send(const void *buf, int count, MPI_Datatype datatype, int dest, int tag, MPI_Comm comm) -> (buf, count, datatype, dest, tag, comm)\n",
		out)
}

func TestForallfnExcludes(t *testing.T) {
	tbl := table(t,
		[2]string{"MPI_Init", "int *argc, char ***argv"},
		[2]string{"MPI_Send", "const void *buf, int count, MPI_Datatype datatype, int dest, int tag, MPI_Comm comm"},
		[2]string{"MPI_Recv", "void *buf, int count, MPI_Datatype datatype, int source, int tag, MPI_Comm comm, MPI_Status *status"},
	)

	out, err := generate(t, pmpiwrap.Config{}, tbl, "{{forallfn v MPI_Init}}{{v}}\n{{endforallfn}}")
	require.NoError(t, err)

	lines := strings.Fields(out)
	assert.ElementsMatch(t, []string{"MPI_Send", "MPI_Recv"}, lines)
}

func TestFnallWritesEveryOtherWrapper(t *testing.T) {
	tbl := table(t,
		[2]string{"MPI_Init", "int *argc, char ***argv"},
		[2]string{"MPI_Finalize", "void"},
		[2]string{"MPI_Barrier", "MPI_Comm comm"},
	)

	out, err := generate(t, pmpiwrap.Config{}, tbl, "{{fnall f MPI_Init}}  {{callfn}}\n{{endfnall}}")
	require.NoError(t, err)

	assert.Contains(t, out, "int MPI_Finalize() {")
	assert.Contains(t, out, "return_val = PMPI_Finalize();")
	assert.Contains(t, out, "int MPI_Barrier(MPI_Comm comm) {")
	assert.NotContains(t, out, "MPI_Init")
}

func TestInitCallIsRuntimeConditional(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Init", "int *argc, char ***argv"})

	out, err := generate(t, pmpiwrap.Config{}, tbl, "{{fn f MPI_Init}}{{callfn}}{{endfn}}")
	require.NoError(t, err)

	assertInOrder(t, out,
		"int MPI_Init(int *argc, char ***argv) {",
		"int return_val = 0;",
		"if (init_was_fortran) {",
		"pmpi_init_(&return_val);",
		"} else {",
		"return_val = PMPI_Init(argc, argv);",
		"return return_val;",
	)
}

func TestGuardsAndFortran(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Comm_rank", "MPI_Comm comm, int *rank"})

	out, err := generate(t, pmpiwrap.Config{Guards: true, Fortran: true}, tbl,
		"{{fn f MPI_Comm_rank}}    {{callfn}}\n{{endfn}}")
	require.NoError(t, err)

	assertInOrder(t, out,
		"int MPI_Comm_rank(MPI_Comm comm, int *rank) {",
		"if (in_wrapper) return PMPI_Comm_rank(comm, rank);",
		"return_val = PMPI_Comm_rank(comm, rank);",
		"in_wrapper = 0;",
		"void MPI_Comm_rank_fortran_wrapper(MPI_Fint *comm, MPI_Fint *rank, MPI_Fint *ierr) {",
		"int return_val = MPI_Comm_rank(MPI_Comm_f2c(*(comm)), rank);",
		"void MPI_COMM_RANK(",
		"void mpi_comm_rank(",
		"void mpi_comm_rank_(",
		"void mpi_comm_rank__(",
	)
}

func TestNoFortranByDefault(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Barrier", "MPI_Comm comm"})

	out, err := generate(t, pmpiwrap.Config{}, tbl, "{{fn f MPI_Barrier}}{{endfn}}")
	require.NoError(t, err)
	assert.NotContains(t, out, "fortran_wrapper")
	assert.NotContains(t, out, "in_wrapper")
}

func TestFileno(t *testing.T) {
	out, err := generate(t, pmpiwrap.Config{}, mpi.Table{}, "a{{fileno}}\n", "b{{fileno}}\n")
	require.NoError(t, err)
	assert.Equal(t, "a0\nb1\n", out)
}

func TestUnknownFunction(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Barrier", "MPI_Comm comm"})

	for _, text := range []string{
		"{{fn f MPI_Bogus}}{{endfn}}",
		"{{foreachfn f MPI_Barrier MPI_Bogus}}{{endforeachfn}}",
	} {
		_, err := generate(t, pmpiwrap.Config{}, tbl, text)

		var serr *tmpl.SemanticError
		require.ErrorAs(t, err, &serr, text)
		assert.Contains(t, serr.Error(), "MPI_Bogus is not an MPI function")
	}
}

func TestUnknownMacro(t *testing.T) {
	_, err := generate(t, pmpiwrap.Config{}, mpi.Table{}, "x{{bogus 1 2}}")

	var serr *tmpl.SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "bogus")
}

func TestBindingsDoNotLeak(t *testing.T) {
	tbl := table(t, [2]string{"MPI_Barrier", "MPI_Comm comm"})

	_, err := generate(t, pmpiwrap.Config{}, tbl, "{{foreachfn f MPI_Barrier}}{{endforeachfn}}{{argList}}")

	var serr *tmpl.SyntaxError
	assert.ErrorAs(t, err, &serr)
}

func TestMissingVariable(t *testing.T) {
	_, err := generate(t, pmpiwrap.Config{}, mpi.Table{}, "{{fn}}{{endfn}}")

	var serr *tmpl.SyntaxError
	assert.ErrorAs(t, err, &serr)
}

func TestPreamble(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pmpiwrap.New(pmpiwrap.Config{Guards: true}, mpi.Table{}).WritePreamble(&buf))

	assert.Equal(t, `#include <mpi.h>
static int in_wrapper = 0;
static int init_was_fortran = 0;
#pragma weak pmpi_init=pmpi_init_
#pragma weak PMPI_INIT=pmpi_init_
#pragma weak pmpi_init__=pmpi_init_

#ifdef __cplusplus
extern "C" {
#endif /* __cplusplus */
    void pmpi_init(MPI_Fint *ierr);
    void PMPI_INIT(MPI_Fint *ierr);
    void pmpi_init_(MPI_Fint *ierr);
    void pmpi_init__(MPI_Fint *ierr);
#ifdef __cplusplus
}
#endif /* __cplusplus */
`, buf.String())

	buf.Reset()
	require.NoError(t, pmpiwrap.New(pmpiwrap.Config{}, mpi.Table{}).WritePreamble(&buf))
	assert.NotContains(t, buf.String(), "in_wrapper")
	assert.True(t, strings.HasPrefix(buf.String(), "#include <mpi.h>\nstatic int init_was_fortran = 0;\n"))
}

func TestLoad(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	g, err := pmpiwrap.Load(pmpiwrap.Config{Compiler: "sh mpi/testdata/fake_mpicc.sh"})
	require.NoError(t, err)

	_, ok := g.Functions().Lookup("MPI_Waitall")
	assert.True(t, ok)
}

func TestConfigPreprocessor(t *testing.T) {
	assert.Equal(t, mpi.Compiler{Command: "mpicc"}, pmpiwrap.Config{}.Preprocessor())
	assert.Equal(t, mpi.Compiler{Command: "mpiicc -I/opt"}, pmpiwrap.Config{Compiler: "mpiicc -I/opt"}.Preprocessor())
	assert.Equal(t, mpi.Builtin{IncludePaths: []string{"/usr/include/mpich"}},
		pmpiwrap.Config{BuiltinPreprocessor: true, IncludePaths: []string{"/usr/include/mpich"}}.Preprocessor())
}

func TestCompilerFromEnv(t *testing.T) {
	t.Setenv("MPICC", "mpiicx")
	assert.Equal(t, "mpiicx", pmpiwrap.CompilerFromEnv())

	t.Setenv("MPICC", "")
	assert.Equal(t, pmpiwrap.DefaultCompiler, pmpiwrap.CompilerFromEnv())
}
