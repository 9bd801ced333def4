// Package functions invokes the platform's serverless functions.
//
// Functions are opaque HTTP endpoints at {base_url}/functions/v1/{name}
// that answer with a JSON envelope carrying a success flag. Each call is a
// single attempt: callers surface failures to the user instead of retrying.
package functions
