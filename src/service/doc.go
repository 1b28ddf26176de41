// Package service serves the operational endpoints of a relay node:
//
//	GET /upcheck   liveness probe, answers "I'm up!"
//	GET /version   version string
//	GET /stats     node statistics and store counts, as JSON
//	GET /keys      local public keys, as a JSON list of base64 strings
//	GET /peers     the known peers, as JSON
package service
