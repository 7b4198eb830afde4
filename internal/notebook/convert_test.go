package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
 "cells": [
  {
   "cell_type": "markdown",
   "metadata": {},
   "source": ["# Training\n", "\n", "Tune the learning rate."]
  },
  {
   "cell_type": "code",
   "execution_count": null,
   "metadata": {},
   "outputs": [],
   "source": ["lr = 0.1\n", "epochs = 10"]
  },
  {
   "cell_type": "code",
   "execution_count": 2,
   "metadata": {},
   "outputs": [],
   "source": ["print(lr)"]
  }
 ],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`

func TestToSource(t *testing.T) {
	src, err := ToSource([]byte(sampleNotebook))
	require.NoError(t, err)

	assert.Equal(t, "# %% [markdown]\n"+
		"# # Training\n"+
		"#\n"+
		"# Tune the learning rate.\n"+
		"\n"+
		"# %%\n"+
		"lr = 0.1\n"+
		"epochs = 10\n"+
		"\n"+
		"# %%\n"+
		"print(lr)\n", src)
}

func TestToSourceRejectsGarbage(t *testing.T) {
	_, err := ToSource([]byte("not json"))
	assert.Error(t, err)
}

func TestFromSource(t *testing.T) {
	data, err := FromSource("# %%\nlr = 0.1\n\n# %% [markdown]\n# Notes\n\n# %%\nprint(lr)\n")
	require.NoError(t, err)

	var doc struct {
		Cells []struct {
			CellType string   `json:"cell_type"`
			Source   []string `json:"source"`
		} `json:"cells"`
		NBFormat      int `json:"nbformat"`
		NBFormatMinor int `json:"nbformat_minor"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Cells, 3)
	assert.Equal(t, 4, doc.NBFormat)
	assert.Equal(t, 5, doc.NBFormatMinor)
	assert.Equal(t, "code", doc.Cells[0].CellType)
	assert.Equal(t, []string{"lr = 0.1"}, doc.Cells[0].Source)
	assert.Equal(t, "markdown", doc.Cells[1].CellType)
	assert.Equal(t, []string{"Notes"}, doc.Cells[1].Source)
	assert.Equal(t, "code", doc.Cells[2].CellType)
}

func TestFromSourceCodeCellFields(t *testing.T) {
	data, err := FromSource("# %%\nx = 1\n")
	require.NoError(t, err)

	var doc struct {
		Cells []map[string]json.RawMessage `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Cells, 1)

	// nbformat requires these on code cells and forbids them on markdown.
	assert.Contains(t, doc.Cells[0], "outputs")
	assert.Contains(t, doc.Cells[0], "execution_count")
	assert.Equal(t, "null", string(doc.Cells[0]["execution_count"]))
}

func TestFromSourceTitledMarkdownMarker(t *testing.T) {
	// jupytext titles cells after the marker; the trailing text must not
	// demote the cell to code.
	data, err := FromSource("# %% [markdown] Intro\n# Notes\n\n# %%\nx = 1\n")
	require.NoError(t, err)

	var doc struct {
		Cells []struct {
			CellType string   `json:"cell_type"`
			Source   []string `json:"source"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Cells, 2)
	assert.Equal(t, "markdown", doc.Cells[0].CellType)
	assert.Equal(t, []string{"Notes"}, doc.Cells[0].Source)
	assert.Equal(t, "code", doc.Cells[1].CellType)
}

func TestFromSourcePreambleBecomesCodeCell(t *testing.T) {
	data, err := FromSource("import os\n\n# %%\nx = 1\n")
	require.NoError(t, err)

	var doc struct {
		Cells []struct {
			CellType string   `json:"cell_type"`
			Source   []string `json:"source"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Cells, 2)
	assert.Equal(t, []string{"import os"}, doc.Cells[0].Source)
}

func TestRoundTrip(t *testing.T) {
	src, err := ToSource([]byte(sampleNotebook))
	require.NoError(t, err)

	data, err := FromSource(src)
	require.NoError(t, err)

	src2, err := ToSource(data)
	require.NoError(t, err)
	assert.Equal(t, src, src2, "source -> notebook -> source must be stable")
}
