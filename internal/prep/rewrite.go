package prep

import (
	"github.com/harrison/songdeck/internal/document"
	"github.com/harrison/songdeck/internal/parser"
	"github.com/harrison/songdeck/internal/schema"
)

// DocumentOptions returns the options a prep result adds to section:
// <split>_data_path for TRAIN and LEARNCURVE, csv_path for EVAL and PREDICT.
func (r *Result) DocumentOptions(section schema.Section) map[string]string {
	out := make(map[string]string)
	switch section {
	case schema.Train, schema.Learncurve:
		for split, path := range r.DictPaths {
			out[split+"_data_path"] = path
		}
	case schema.Eval, schema.Predict:
		out["csv_path"] = r.CSVPath
	}
	return out
}

// RewriteDocument returns doc with paths set in section. Every other line
// of doc is kept as written. The caller decides whether and where to save.
func RewriteDocument(doc *document.Document, section schema.Section, paths map[string]string) (*document.Document, error) {
	if len(paths) == 0 {
		return doc, nil
	}
	if _, ok := schema.Lookup(section); !ok {
		return nil, parser.Errorf(parser.KindStructural, string(section), "", "unknown section")
	}
	values := make(map[string]any, len(paths))
	for k, v := range paths {
		values[k] = v
	}
	return doc.WithOptions(string(section), values)
}
