/*
Package config holds the options of a single verifycp run.

	  cobra flags
	       |
	+------v------+
	|   Options   |
	+------+------+
	       | Validate
	+------v------+
	|  operation  |
	+-------------+

🎯 Purpose:
- Collects the origin, destination and mode flags in one value
- Validates them before anything touches the filesystem
- Picks the report format from the report file extension

There is no configuration file: every option comes from the command line.

🔍 Example:

	opts := &config.Options{Origin: "pack.zip", Destination: "out", Jobs: 1}
	if err := opts.Validate(); err != nil {
		return err
	}
*/
package config
