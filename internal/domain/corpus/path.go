package corpus

import "strings"

// legacyDirs maps chunk directories used by the index to their location under ./data.
var legacyDirs = []struct{ prefix, dir string }{
	{"dcs_json/", "dcs"},
	{"brc_json/", "brc"},
	{"title9_json/", "title9"},
}

// NormalizeFilePath maps a record's file reference to a site-relative chunk path.
func NormalizeFilePath(file string) string {
	base := file
	if i := strings.LastIndex(file, "/"); i >= 0 {
		base = file[i+1:]
	}
	for _, d := range legacyDirs {
		if strings.HasPrefix(file, d.prefix) {
			return "./data/" + d.dir + "/" + base
		}
	}
	if strings.HasPrefix(file, "./") {
		return file
	}
	return "./" + file
}

// ChunkPath is the normalized path of the chunk file holding the record's full text.
func (r *Record) ChunkPath() string {
	return NormalizeFilePath(r.File)
}
