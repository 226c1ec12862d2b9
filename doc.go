/*
Package graph models a directed flow graph of computational blocks
connected by typed streaming edges.

# Concept

User code describes the graph: blocks are added, ports are connected,
and each connection carries a requested minimum buffer size. Nothing is
allocated at that point. Init resolves every pending connection into a
concrete circular buffer shared by exactly one writer (the source port)
and one reader per destination port, and records the resolved edge.

# Blocks

A block is anything implementing the Block interface: a Work method
driven by a scheduler, a blocking-ness hint, input availability probing
and a pair of names for diagnostics. Concrete block types are never
named by the runtime; the Block interface is the only surface the
scheduler needs.

# Ports

Ports are typed: an Out[T] of one block connects to an In[T] of another.
Connect binds ports with compile-time type safety; ConnectByName resolves
ports dynamically and fails with ErrPortMismatch when types or directions
disagree.

# Execution

Graphs do not execute themselves. A scheduler from the scheduler package
borrows the graph for its lifetime, resolves the connections via Init and
drives the blocks' Work methods; see the scheduler package documentation.
*/
package graph
