// Package purge implements two-phase deletion for tenants and
// documents. Marking is synchronous and immediately excludes the item
// from ingestion and retrieval; purging runs asynchronously with
// bounded retries and verifies zero derived entries remain before the
// purged state is asserted. The reconciliation sweep re-drives any
// purge interrupted by a crash, so marked data never lingers silently.
package purge
