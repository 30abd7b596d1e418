package internal

// Default delimiters
const (
	DefaultOpenDelim  = "{{"
	DefaultCloseDelim = "}}"
)

// Tag sigils
const (
	SigilNone      byte = 0
	SigilSection   byte = '#'
	SigilInverted  byte = '^'
	SigilClose     byte = '/'
	SigilDelimiter byte = '='
	SigilComment   byte = '!'
	SigilPartial   byte = '>'
	SigilTriple    byte = '{'
	SigilAmpersand byte = '&'
	SigilPragma    byte = '%'
	SigilTripleEnd byte = '}'
)

// ImplicitIterator names the current top frame
const ImplicitIterator = "."

// Character constants
const (
	CharEquals      = '='
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
)

// Pragma names
const (
	PragmaDotNotation = "DOT-NOTATION"
	PragmaUnescaped   = "UNESCAPED"
)

// PathSeparator splits dotted names under DOT-NOTATION
const PathSeparator = "."

// Struct tag consulted when resolving names against struct fields
const StructTagName = "mustache"

// Default configuration values
const (
	DefaultMaxDepth = 100
)

// Log message constants
const (
	LogMsgLexerCreated      = "lexer created"
	LogMsgDelimitersChanged = "delimiters changed"
	LogMsgParserCreated     = "parser created"
	LogMsgParserStart       = "starting parse"
	LogMsgParserEnd         = "parse complete"
	LogMsgUnclosedSection   = "section has no matching close tag"
	LogMsgStrayClose        = "close tag has no matching section"
	LogMsgPragmaDeclared    = "pragma declared"
	LogMsgExecutorCreated   = "executor created"
	LogMsgExecutorStart     = "starting render"
	LogMsgExecutorEnd       = "render complete"
	LogMsgSectionRendered   = "section rendered"
	LogMsgPartialRendered   = "partial rendered"
	LogMsgErrorStrategyUsed = "error strategy applied"
	LogMsgErrorLogged       = "render error logged and suppressed"
	LogMsgPragmaActivated   = "pragma activated"
)

// Log field names
const (
	LogFieldSource   = "source_length"
	LogFieldNodes    = "node_count"
	LogFieldTag      = "tag"
	LogFieldName     = "name"
	LogFieldOpen     = "open"
	LogFieldClose    = "close"
	LogFieldLine     = "line"
	LogFieldColumn   = "column"
	LogFieldDepth    = "depth"
	LogFieldItems    = "items"
	LogFieldClass    = "error_class"
	LogFieldStrategy = "strategy"
	LogFieldErrorMsg = "error"
	LogFieldPragma   = "pragma"
	LogFieldFrames   = "frames"
)

// String formatting constants
const (
	MaxStringDisplayLength = 50
	TruncatedStringLength  = 47
	TruncationSuffix       = "..."
	StringValueEmpty       = ""
	StringValueTrue        = "true"
	StringValueFalse       = "false"
	StringValueZero        = "0"
)

// Error format constants
const (
	ErrFmtWithPosition = "%s at %s"
	ErrFmtWithName     = "%s: %s at %s"
	ErrFmtWithCause    = "%s: %v"
)
