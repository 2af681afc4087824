// Package runner configures and executes the external validators.
//
// A runners file lists each validator with its command template:
//
//	runners:
//	  - id: commons-ip
//	    name: commons-ip validator
//	    url: https://github.com/keeps/commons-ip
//	    family: commons-ip
//	    output: file
//	    commands:
//	      pre: java -jar commons-ip2-cli.jar validate -i
//	      post: [--reporter-type, eark]
//	      version: java -jar commons-ip2-cli.jar --version
//
// Command segments may be YAML sequences or single shell-quoted strings.
// The validator is invoked as pre..., package path, post... and each
// runner's version is resolved once at startup from its version probe.
//
// A validator failing on a package (non-zero exit, timeout, garbage on
// stdout) is data, not an error: Exec.Run always returns a ProcessResult.
package runner
