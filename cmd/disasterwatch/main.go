// Command disasterwatch aggregates disaster reports from weather, news,
// social, and federal sources and raises proximity alerts for a position.
//
// Usage:
//
//	disasterwatch serve
//	disasterwatch aggregate <city> [--format json|yaml|markdown]
//	disasterwatch global [--format json|yaml|markdown]
//	disasterwatch check --lat <lat> --lon <lon>
package main

func main() {
	Execute()
}
