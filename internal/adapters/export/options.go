package export

import "unicode/utf8"

// Option applies a configuration option to the CSV codec.
type Option func(*codec)

// WithDelimiter sets the field delimiter. Quotes, carriage returns, line
// feeds and the Unicode replacement character are ignored.
func WithDelimiter(r rune) Option {
	return func(c *codec) {
		switch r {
		case 0, '"', '\r', '\n', utf8.RuneError:
			return
		}
		c.delimiter = r
	}
}

// WithLabelSeparator sets the text placed between labels inside one cell.
func WithLabelSeparator(sep string) Option {
	return func(c *codec) {
		if sep != "" {
			c.labelSeparator = sep
		}
	}
}
