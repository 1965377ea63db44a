package router

// routingPromptTemplate is filled with the source catalog, the few-shot
// examples, and the user query. The model must answer with a single
// "sources:" line naming none, all, or a subset of the catalog.
const routingPromptTemplate = `Below is a user query or statement. You have the option to use one or more retrieval sources to help answer the query.

The available retrieval sources are:
%s
If the user is just making small talk or asking for help with tasks that do not require outside information, then you should not use any retrieval source.

Answer with exactly one line of the form "sources: <value>" where <value> is "none", "all", or a comma-separated list of source names from the list above. Do not add any other text.

Example:

%s
Here is the user query I want you to classify:
User: %s
sources:`

// defaultExamples mirrors the query mix the routing model is expected to
// see: factual lookups route to retrieval, small talk and self-contained
// tasks do not.
var defaultExamples = []RoutingExample{
	{Query: "What is the capital of France?", Answer: "all"},
	{Query: "How do I install the latest version of the NVIDIA driver?", Answer: "all"},
	{Query: "count t o3", Answer: "none"},
	{Query: "Hello!", Answer: "none"},
	{Query: "What are you?", Answer: "none"},
	{Query: "What is the meaning of life?", Answer: "none"},
	{Query: "Count to 3.", Answer: "none"},
	{Query: "When is the B200 available?", Answer: "all"},
	{Query: "What is the difference between the A100 and the A30?", Answer: "all"},
	{Query: `Check this email for typos "To whom it may concern, I am writing to you ..."`, Answer: "none"},
	{Query: `Help me debug this Python code: "import pandas; df = pd.read_csv('data.csv') ..."`, Answer: "none"},
	{Query: "What is my name?", Answer: "none"},
}

// RoutingExample is one few-shot pair in the routing prompt. Answer uses the
// same format the model must produce: "none", "all", or source names.
type RoutingExample struct {
	Query  string
	Answer string
}
