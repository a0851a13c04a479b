package transcript

import "regexp"

var (
	peersRe   = regexp.MustCompile(`created peers peer1=(\S+) peer2=(\S+)`)
	projectRe = regexp.MustCompile(`project_id="([^"]+)"`)
)

// ExtractPeers finds the first peer announcement in the log and labels the two
// identifiers it names.
func ExtractPeers(text string) ([2]PeerAlias, error) {
	m := peersRe.FindStringSubmatch(text)
	if m == nil {
		return [2]PeerAlias{}, ErrMissingPeerDeclaration
	}
	return [2]PeerAlias{
		{ID: m[1], Label: Peer1Label},
		{ID: m[2], Label: Peer2Label},
	}, nil
}

// ExtractProject returns the first quoted project_id value in the log.
func ExtractProject(text string) (ProjectAlias, error) {
	m := projectRe.FindStringSubmatch(text)
	if m == nil {
		return ProjectAlias{}, ErrMissingProjectIdentifier
	}
	return ProjectAlias{ID: m[1], Label: ProjectLabel}, nil
}

// Extract discovers both peers and the project. Peers are checked first, so a
// log missing both reports ErrMissingPeerDeclaration.
func Extract(text string) (Aliases, error) {
	peers, err := ExtractPeers(text)
	if err != nil {
		return Aliases{}, err
	}
	project, err := ExtractProject(text)
	if err != nil {
		return Aliases{}, err
	}
	return Aliases{Peers: peers, Project: project}, nil
}

// Substitute replaces every occurrence of each identifier with its placeholder.
func Substitute(text string, a Aliases) string {
	return a.replacer().Replace(text)
}
