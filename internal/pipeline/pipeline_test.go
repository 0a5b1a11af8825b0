package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-processor/internal/parser"
	"receipt-processor/internal/pipeline"
)

type stubExtractor struct {
	text string
}

func (s stubExtractor) Extract(_ context.Context, _, _ string) string { return s.text }

func TestProcess(t *testing.T) {
	p := pipeline.New(
		stubExtractor{text: "TARGET\nGRAND TOTAL $9.99\n15/03/2024"},
		parser.New(nil, nil),
		nil,
	)

	res, err := p.Process(context.Background(), "receipt.txt", ".txt")
	require.NoError(t, err)
	assert.Equal(t, "Target", res.Record.Vendor)
	assert.InDelta(t, 9.99, res.Record.Amount, 1e-9)
}

func TestProcessEmptyTextFails(t *testing.T) {
	p := pipeline.New(stubExtractor{text: ""}, parser.New(nil, nil), nil)

	_, err := p.Process(context.Background(), "blank.png", ".png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrNoText))
}

func TestProcessTextWithoutHeuristicsStillSucceeds(t *testing.T) {
	p := pipeline.New(stubExtractor{text: "illegible smudge"}, parser.New(nil, nil), nil)

	res, err := p.Process(context.Background(), "smudge.jpg", ".jpg")
	require.NoError(t, err, "partial information is preferable to rejection once any text exists")
	assert.Equal(t, parser.VendorUnknown, res.Record.Vendor)
	assert.Equal(t, parser.CategoryUncategorized, res.Record.Category)
	assert.Zero(t, res.Record.Amount)
	assert.False(t, res.Record.TxDate.IsZero())
}
