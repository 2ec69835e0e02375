package discovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Seed is one curated candidate entry.
type Seed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SeedList holds curated candidate companies grouped by industry signal.
// The consulting group is the base pool; the others are appended when the
// target profile shows the matching vertical.
type SeedList struct {
	Consulting []Seed `yaml:"consulting"`
	Healthcare []Seed `yaml:"healthcare"`
	Education  []Seed `yaml:"education"`
}

// LoadSeedList reads a seed list from a YAML file. An empty path returns
// the built-in defaults.
func LoadSeedList(path string) (*SeedList, error) {
	if path == "" {
		return defaultSeedList(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read seed file %s", path)
	}

	var wrapper struct {
		Candidates SeedList `yaml:"candidates"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "discovery: parse seed file")
	}

	list := wrapper.Candidates
	if len(list.Consulting) == 0 {
		list.Consulting = defaultSeedList().Consulting
	}
	return &list, nil
}

// defaultSeedList returns the built-in publicly traded consulting and
// professional services companies, plus the vertical-specific pools.
func defaultSeedList() *SeedList {
	return &SeedList{
		Consulting: []Seed{
			{Name: "Accenture", URL: "https://www.accenture.com"},
			{Name: "IBM Global Services", URL: "https://www.ibm.com/services"},
			{Name: "Cognizant", URL: "https://www.cognizant.com"},
			{Name: "Infosys", URL: "https://www.infosys.com"},
			{Name: "Wipro", URL: "https://www.wipro.com"},
			{Name: "Tata Consultancy Services", URL: "https://www.tcs.com"},
			{Name: "Capgemini", URL: "https://www.capgemini.com"},
			{Name: "Atos", URL: "https://atos.net"},
			{Name: "EPAM Systems", URL: "https://www.epam.com"},
			{Name: "Perficient", URL: "https://www.perficient.com"},
			{Name: "Publicis Sapient", URL: "https://www.publicissapient.com"},
			{Name: "Booz Allen Hamilton", URL: "https://www.boozallen.com"},
			{Name: "FTI Consulting", URL: "https://www.fticonsulting.com"},
			{Name: "Guidehouse", URL: "https://www.guidehouse.com"},
			{Name: "DXC Technology", URL: "https://www.dxc.com"},
			{Name: "CGI", URL: "https://www.cgi.com"},
			{Name: "NTT Data", URL: "https://www.nttdata.com"},
			{Name: "Tyler Technologies", URL: "https://www.tylertech.com"},
		},
		Healthcare: []Seed{
			{Name: "McKesson", URL: "https://www.mckesson.com"},
			{Name: "Cardinal Health", URL: "https://www.cardinalhealth.com"},
			{Name: "Cerner Corporation", URL: "https://www.cerner.com"},
			{Name: "Optum", URL: "https://www.optum.com"},
			{Name: "Change Healthcare", URL: "https://www.changehealthcare.com"},
		},
		Education: []Seed{
			{Name: "Ellucian", URL: "https://www.ellucian.com"},
			{Name: "Blackbaud", URL: "https://www.blackbaud.com"},
			{Name: "Workday", URL: "https://www.workday.com"},
		},
	}
}
