package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paramit/internal/config"
	"paramit/internal/extract"
	"paramit/internal/pyast"
)

func parse(t *testing.T, src string) *pyast.Tree {
	t.Helper()
	p := pyast.NewParser()
	t.Cleanup(p.Close)
	tree, err := p.Parse("script.py", []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

const template = `lr = 0.1
epochs = 10
resume = False
name = 'baseline'
path = "data.csv"

def train():
    print(lr)
`

func TestRewriteReplacesLiterals(t *testing.T) {
	tree := parse(t, template)

	out, err := Rewrite(tree, map[string]config.TaggedValue{
		"lr":     config.FloatValue(0.01),
		"epochs": config.IntValue(50),
		"resume": config.BoolValue(true),
		"name":   config.StringValue("sweep"),
	})
	require.NoError(t, err)

	got := string(out)
	assert.Contains(t, got, "lr = 0.01")
	assert.Contains(t, got, "epochs = 50")
	assert.Contains(t, got, "resume = True")
	assert.Contains(t, got, `name = "sweep"`)
	assert.Contains(t, got, `path = "data.csv"`, "unmapped names stay put")
}

func TestRewriteIdempotence(t *testing.T) {
	// Extracting a config and injecting it straight back must reproduce
	// the source exactly, including quote styles and number formatting.
	tree := parse(t, template)

	vars := extract.Variables(tree)
	cfg := config.New(vars, config.Metadata{})

	out, err := Rewrite(tree, cfg.TopLevelScalars())
	require.NoError(t, err)
	assert.Equal(t, template, string(out))
}

func TestRewriteDoesNotMutateTemplate(t *testing.T) {
	tree := parse(t, template)
	globals := map[string]config.TaggedValue{"epochs": config.IntValue(1)}

	first, err := Rewrite(tree, globals)
	require.NoError(t, err)

	second, err := Rewrite(tree, map[string]config.TaggedValue{"epochs": config.IntValue(2)})
	require.NoError(t, err)

	assert.Contains(t, string(first), "epochs = 1")
	assert.Contains(t, string(second), "epochs = 2")
	assert.Equal(t, template, string(tree.Source), "template source must never change")
}

func TestRewriteTypeMismatch(t *testing.T) {
	tree := parse(t, "epochs = 10\n")

	_, err := Rewrite(tree, map[string]config.TaggedValue{
		"epochs": config.StringValue("ten"),
	})
	require.Error(t, err)

	var merr *TypeMismatchError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "epochs", merr.Name)
	assert.Equal(t, config.KindInt, merr.LiteralKind)
	assert.Equal(t, config.KindString, merr.ValueKind)
}

func TestRewriteIntWidensIntoFloatLiteral(t *testing.T) {
	tree := parse(t, "lr = 0.1\n")

	out, err := Rewrite(tree, map[string]config.TaggedValue{
		"lr": config.IntValue(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "lr = 1.0\n", string(out))
}

func TestRewriteIgnoresDottedKeys(t *testing.T) {
	// Qualified names round-trip through the config but are never
	// applied to the program.
	tree := parse(t, "class Model:\n    def __init__(self, hidden=128):\n        pass\n")

	out, err := Rewrite(tree, map[string]config.TaggedValue{})
	require.NoError(t, err)
	assert.Equal(t, string(tree.Source), string(out))
}

func TestRewriteChainedAssignment(t *testing.T) {
	tree := parse(t, "a = b = 5\n")

	out, err := Rewrite(tree, map[string]config.TaggedValue{
		"a": config.IntValue(9),
		"b": config.IntValue(7),
	})
	require.NoError(t, err)
	// One shared literal: the last target in source order decides.
	assert.Equal(t, "a = b = 7\n", string(out))
}
