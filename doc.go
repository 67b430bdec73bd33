/*
Package vultrdns keeps Vultr DNS "A" records pointed at the machine's
current public IPv4 address.

Usage starts with a [Resolver] to detect the public address and a [Client]
for the Vultr v2 API; a [Reconciler] ties the two together across the
configured update targets, deciding per target whether to create, update,
or leave the record alone.
*/
package vultrdns
