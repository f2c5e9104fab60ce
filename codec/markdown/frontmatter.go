package markdown

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/location"
)

var frontmatterDelim = []byte("---")

// splitFrontmatter separates a leading YAML frontmatter block (delimited by
// a line containing only "---" at the very start of source and a matching
// closing "---" line) from the remaining Markdown body. ok reports whether
// a frontmatter block was found; if not, body is the entire source
// unchanged.
func splitFrontmatter(source []byte) (raw []byte, body []byte, ok bool) {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimRight(lines[0], "\r\n"), frontmatterDelim) {
		return nil, source, false
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimRight(lines[i], "\r\n"), frontmatterDelim) {
			var rawBuf, bodyBuf bytes.Buffer
			for _, l := range lines[1:i] {
				rawBuf.Write(l)
			}
			for _, l := range lines[i+1:] {
				bodyBuf.Write(l)
			}
			return rawBuf.Bytes(), bodyBuf.Bytes(), true
		}
	}
	return nil, source, false
}

// parseFrontmatter decodes a YAML frontmatter block into a plain
// map[string]any suitable for immutable.WrapPropertiesClone. A malformed
// block is reported as an E_FRONTMATTER_INVALID diagnostic on collector
// rather than a hard error, mirroring the rest of the codec's
// issue-collecting style.
func parseFrontmatter(source location.SourceID, raw []byte, collector *diag.Collector) map[string]any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}

	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_FRONTMATTER_INVALID, "frontmatter block is not valid YAML").
			WithPath(source.String(), "frontmatter").
			WithDetail("error", err.Error()).
			Build())
		return map[string]any{}
	}
	if m == nil {
		m = map[string]any{}
	}
	return m
}
