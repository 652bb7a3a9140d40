package title

import "strings"

// DefaultExtension is the e-book container produced downstream.
const DefaultExtension = "azw3"

const maxFilenameRunes = 96

// "’" as it appears after a UTF-8 apostrophe was decoded as Windows-1252.
const mojibakeApostrophe = "â€™"

var filenameReplacer = strings.NewReplacer(
	":", " ",
	"/", " ",
	mojibakeApostrophe, " ",
	",", " ",
	"?", " ",
)

// Filename derives a file name from a canonical title: characters that are
// unsafe in file names become spaces, the result is cut to 96 characters,
// trimmed and given ext (DefaultExtension when empty).
func Filename(canonical, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	name := filenameReplacer.Replace(canonical)
	if r := []rune(name); len(r) > maxFilenameRunes {
		name = string(r[:maxFilenameRunes])
	}
	return strings.TrimSpace(name) + "." + strings.TrimPrefix(ext, ".")
}
