/*
Package config loads and validates sortrc configuration.

	                 +-------------+
	                 |   Config    |
	                 | (Settings)  |
	                 +------+------+
	                        |
	  +--------+--------+---+----+--------+
	  |        |        |        |        |
	+-+--+  +--+-+  +---+--+  +--+-+  +---+--+
	|YAML|  |HCL |  | JSON |  |TOML|  | INI  |
	+----+  +----+  +------+  +----+  +------+

🎯 Purpose:
- Picks a parser from the file extension
- Decodes strictly, unknown keys are errors
- Normalizes extensions to lower case
- Fills in the built-in category table and worker count

🔄 Flow:
 1. Load reads the file
 2. GetParser selects a registered Parser
 3. Parser.Parse decodes into Config
 4. Config.Validate checks and normalizes

⚡ Rules enforced by Validate:
  - workers is never negative, zero means one per CPU
  - every extension starts with "." and belongs to one category
  - Unknown never owns extensions
  - ignore patterns are valid doublestar patterns

🔍 Example:

	cfg, err := config.Load(ctx, ".sortrc.yaml")
	if err != nil {
		return err
	}
	resolver := cfg.Resolver()
*/
package config
