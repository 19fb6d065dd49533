// Package credential discovers credential files from the repository and
// active-slot directories, deduplicating by file name with repository
// precedence, and hands out the sorted result. It also owns upload and
// delete of repository-tier files and the next-spare lookup used by
// failover.
package credential
