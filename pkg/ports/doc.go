/*
Package ports defines the driven and driving ports (interfaces) of the compiler.

These interfaces decouple the compilation core from external implementations,
allowing compiled transducers to be persisted in various backends and grammars
to be read from various sources.

# Key Interfaces

  - TransducerStore: persists compiled transducers (file, memory, Redis).
  - GrammarLoader: retrieves grammar sources by ID (Loam repositories, memory).
  - GrammarCompiler: the compile service consumed by the HTTP and MCP adapters.
  - DistributedLocker: serializes writes of the same transducer across replicas.
*/
package ports
