package cli_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/makola-community/makola/pkg/cli"
)

func TestGetIndexConfig(t *testing.T) {
	t.Run("default collections", func(t *testing.T) {
		cfg := cli.GetIndexConfig("")
		gt.Array(t, cfg.Collections).Length(2).Required()
		gt.Value(t, cfg.Collections[0].Name).Equal("issues")
		gt.Value(t, cfg.Collections[1].Name).Equal("comments")

		for _, idx := range cfg.Collections[0].Indexes {
			last := idx.Fields[len(idx.Fields)-1]
			gt.Value(t, last.Path).Equal("created_at")
		}
		gt.Array(t, cfg.Collections[1].Indexes).Length(1).Required()
		commentFields := cfg.Collections[1].Indexes[0].Fields
		gt.Array(t, commentFields).Length(3).Required()
		gt.Value(t, commentFields[0].Path).Equal("issue_id")
		gt.Value(t, commentFields[2].Path).Equal("seq")
	})

	t.Run("prefixed collections", func(t *testing.T) {
		cfg := cli.GetIndexConfig("staging")
		gt.Value(t, cfg.Collections[0].Name).Equal("staging_issues")
		gt.Value(t, cfg.Collections[1].Name).Equal("staging_comments")
	})
}
