package conf

import (
	"os"
	"strings"
	"sync"
)

// IsDebug reports whether the ZEROQCM_DEBUG environment toggle is on.
// Read once; flipping the variable needs a restart.
var IsDebug = sync.OnceValue(func() bool {
	return os.Getenv(strings.ToUpper(APP_NAME)+"_DEBUG") == "true"
})
