package relevance

// DefaultKeywords is the disaster and humanitarian vocabulary profiles use
// unless a keywords file replaces it.
var DefaultKeywords = []string{
	// natural hazards
	"disaster", "earthquake", "aftershock", "seismic", "tremor", "tsunami", "volcano", "eruption", "lava", "ash", "pyroclastic",
	"flood", "flash flood", "river flood", "dam break", "levee breach", "mudslide", "landslide", "avalanche", "debris flow",
	"hurricane", "typhoon", "cyclone", "tropical storm", "super typhoon", "storm surge", "tornado", "twister", "waterspout",
	"blizzard", "snowstorm", "ice storm", "hailstorm", "cold wave", "heatwave", "drought", "wildfire", "forest fire", "bushfire",
	"lightning", "thunderstorm", "windstorm", "gale", "dust storm", "sandstorm", "sinkhole", "subsidence",

	// man-made
	"explosion", "blast", "bomb", "bombing", "fire", "building collapse", "structural failure", "bridge collapse", "mine collapse",
	"plane crash", "air crash", "helicopter crash", "train derailment", "train crash", "rail accident", "shipwreck", "boat accident",
	"ferry accident", "maritime disaster", "oil spill", "chemical spill", "hazmat", "toxic leak", "gas leak", "industrial accident",
	"factory fire", "warehouse fire", "power outage", "blackout", "brownout", "nuclear accident", "radiation leak", "meltdown",
	"terror attack", "terrorism", "mass shooting", "gun violence", "hostage", "stampede", "riot", "civil unrest", "looting",

	// health and humanitarian
	"pandemic", "epidemic", "outbreak", "virus", "infection", "disease", "ebola", "covid", "coronavirus", "sars", "mers",
	"avian flu", "bird flu", "swine flu", "zika", "dengue", "malaria", "cholera", "plague", "famine", "starvation", "malnutrition",
	"water crisis", "food shortage", "refugee", "displacement", "evacuation", "aid", "relief", "humanitarian", "emergency",
	"casualty", "fatality", "death toll", "injured", "missing", "trapped", "rescued", "search and rescue", "first responder",
	"damage", "destruction", "devastation", "loss", "crisis", "catastrophe", "calamity", "tragedy", "disaster zone",

	// alerts and response
	"weather alert", "weather warning", "red alert", "orange alert", "yellow alert", "evacuation order", "state of emergency",
	"disaster declaration", "disaster relief", "disaster response", "disaster recovery", "mitigation", "preparedness", "recovery",

	// misc
	"hazard", "risk", "danger", "peril", "threat", "vulnerable", "infrastructure damage", "road closure", "airport closure",
	"power cut", "water cut", "shelter", "temporary shelter", "emergency shelter", "aid convoy", "relief supplies", "NGO", "UNICEF",
	"Red Cross", "WHO", "FEMA", "UNHCR", "OCHA", "disaster management", "disaster relief fund", "disaster assistance",
	"emergency services", "emergency response", "emergency management", "emergency operation", "emergency declaration",
	"emergency supplies", "emergency evacuation", "emergency aid", "emergency relief",
}
