package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":10000")
//	-g string   gRPC health bind address ("off" disables)
//	-s string   JWT HMAC secret key
//	-k string   admin key
//	-t int      session token validity, hours
//	-v int      visit token validity, seconds
//	-l string   allow-list source (path, http(s) URL or s3://bucket/key)
//	-b string   S3 bucket for archived exports
//
// Only the flags listed above are picked out of os.Args, so -c/-config
// handled by parseJson does not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-k", "-t", "-v", "-l", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminKey, "k", config.AdminKey, "admin key")

	sessionValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Hours()), "session_token_validity_duration (in hours)")
	visitValidity := fs.Int("v", int(config.VisitTokenValidityDuration.Seconds()), "visit_token_validity_duration (in seconds)")

	fs.StringVar(&config.AllowListSource, "l", config.AllowListSource, "allow-list source")
	fs.StringVar(&config.ExportBucket, "b", config.ExportBucket, "S3 bucket for exports")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations only change when given explicitly, so a finer-grained value
	// from the JSON file survives the conversion to whole hours / seconds
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTokenValidityDuration = time.Duration(*sessionValidity) * time.Hour
		case "v":
			config.VisitTokenValidityDuration = time.Duration(*visitValidity) * time.Second
		}
	})
}
