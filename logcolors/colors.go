package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
	Yellow = "\033[33m"

	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Cache-related log prefixes
const (
	LogCacheInit     = Blue + "[Cache:Init]" + Reset
	LogCache         = Blue + "[Cache]" + Reset
	LogCacheBackup   = Blue + "[Cache:Backup]" + Reset
	LogCacheClear    = Blue + "[Cache:Clear]" + Reset
	LogCacheBackups  = Blue + "[Cache:Backups]" + Reset
	LogCacheRestore  = Blue + "[Cache:Restore]" + Reset
	LogCacheAnalysis = Green + "[Cache:Analysis]" + Reset
)

// Page companion log prefixes
const (
	LogWatcher      = BrightCyan + "[Watcher]" + Reset
	LogExtractor    = Cyan + "[Extractor]" + Reset
	LogSurface      = BrightBlue + "[Surface]" + Reset
	LogOrchestrator = BrightMagenta + "[Orchestrator]" + Reset
	LogClient       = Purple + "[Client]" + Reset
	LogCompanion    = BrightGreen + "[Companion]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Provider returns a colored provider prefix, e.g. [Provider:openai]
func Provider(name string) string {
	return Cyan + "[Provider:" + name + "]" + Reset
}

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Analyze route log prefixes
const (
	LogRequest    = Purple + "[Request]" + Reset
	LogAnalyze    = Green + "[Analyze]" + Reset
	LogPrompt     = Cyan + "[Prompt]" + Reset
	LogValidation = Red + "[Validation]" + Reset
	LogHTTP       = Cyan + "[HTTP]" + Reset
	LogWarning    = Red + "[Warning]" + Reset
)
