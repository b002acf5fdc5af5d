package domain

// Extensions lists the archive suffixes the backends understand, longest first
// so suffix matching picks ".tar.gz" over ".gz".
func Extensions() []string {
	return []string{
		".tar.gz", ".tar.zst", ".tar.xz", ".tar.bz2",
		".tgz", ".txz", ".tzst", ".tbz2",
		".tar", ".zip",
	}
}
