package docstore

import "errors"

// DefaultStoreName is the default store file name.
const DefaultStoreName = "documentation.json"

// Error variables for store operations.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrStorePathEmpty     = errors.New("store_path cannot be empty")
	ErrFlagRequiresArg    = errors.New("flag requires an argument")
	ErrUnknownFlag        = errors.New("unknown flag")

	ErrDocsNotList        = errors.New("documentation must be a list")
	ErrDocEntryNotObject  = errors.New("documentation entry is not an object")
	ErrDocMissingFunction = errors.New("documentation entry missing function name")
	ErrDocPayloadInvalid  = errors.New("invalid documentation payload")

	ErrStoreWrite = errors.New("cannot write store file")

	ErrFilenameRequired   = errors.New("filename is required")
	ErrQueryRequired      = errors.New("search query is required")
	ErrSourceFileRequired = errors.New("source file path is required")
	ErrFileNotDocumented  = errors.New("no documentation stored for file")
)
