package integration

type sourceResponse struct {
	Provider     string `json:"provider"`
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	CommitSHA    string `json:"commitSha"`
	AddedAt      string `json:"addedAt"`
	LuminaJSON   struct {
		Blocks []blockResponse `json:"blocks"`
	} `json:"luminaJson"`
}

type blockResponse struct {
	ID    string `json:"id"`
	Title struct {
		HeText string `json:"he_text"`
		EnText string `json:"en_text"`
	} `json:"title"`
	Prerequisites []string `json:"prerequisites"`
	Parents       []string `json:"parents"`
}

type sourceListResponse struct {
	Sources []sourceResponse `json:"sources"`
	Count   int              `json:"count"`
}

type blockListResponse struct {
	Blocks []blockResponse `json:"blocks"`
	Count  int             `json:"count"`
}

type statusResponse struct {
	Phase   string  `json:"phase"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
	Sources int     `json:"sources"`
	Blocks  int     `json:"blocks"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func blockIDs(blocks []blockResponse) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	return ids
}
