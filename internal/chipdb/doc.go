// Package chipdb is the chip database used to resolve DUT definitions.
//
// # Data model
//
// Chips are described in target family files (YAML). A family groups
// variants that share flash algorithms; every variant becomes one Target:
//
//	name: nRF52 Series
//	manufacturer: Nordic Semiconductor
//	variants:
//	  - name: nRF52832_xxAA
//	    cores: [{name: main, type: armv7em}]
//	    memory_map:
//	      - {kind: nvm, name: FLASH, start: 0x0, end: 0x80000, boot: true}
//	    flash_algorithms: [nrf52]
//	flash_algorithms:
//	  - {name: nrf52, default: true, load_address: 0x20000008}
//
// # Lookups
//
// The database exposes two separate capabilities: Search maps a free-form
// query to every matching chip name, and Fetch returns the full descriptor
// for one exact name. Callers that need a single chip must treat more than
// one Search result as an error rather than picking one.
//
// A set of families is embedded in the binary (see Builtin). Registries can
// be extended from a directory of YAML files or replaced by a msgpack
// snapshot produced with WriteSnapshot.
package chipdb
