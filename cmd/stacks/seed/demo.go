package seedcmder

func intPtr(v int) *int { return &v }

// demoRecords returns a small corpus for trying out search without real data.
func demoRecords() []seedRecord {
	return []seedRecord{
		{
			ID:              "demo-attention",
			Title:           "Attention Is All You Need",
			Authors:         []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"},
			Abstract:        "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks. We propose a new simple network architecture, the Transformer, based solely on attention mechanisms, dispensing with recurrence and convolutions entirely.",
			PublicationYear: intPtr(2017),
			Conference:      "NeurIPS",
			Keywords:        []string{"transformers", "attention", "sequence modeling"},
			FullText: "Introduction\n\nRecurrent neural networks, long short-term memory and gated recurrent neural networks in particular, have been firmly established as state of the art approaches in sequence modeling and transduction problems such as language modeling and machine translation.\n\n" +
				"Model Architecture\n\nMost competitive neural sequence transduction models have an encoder-decoder structure. The Transformer follows this overall architecture using stacked self-attention and point-wise, fully connected layers for both the encoder and decoder.\n\n" +
				"Results\n\nOn the WMT 2014 English-to-German translation task, the big transformer model outperforms the best previously reported models including ensembles by more than 2.0 BLEU, establishing a new state-of-the-art BLEU score of 28.4.",
		},
		{
			ID:              "demo-bert",
			Title:           "BERT: Pre-training of Deep Bidirectional Transformers for Language Understanding",
			Authors:         []string{"Jacob Devlin", "Ming-Wei Chang", "Kenton Lee"},
			Abstract:        "We introduce a new language representation model called BERT, which stands for Bidirectional Encoder Representations from Transformers. BERT is designed to pre-train deep bidirectional representations from unlabeled text.",
			PublicationYear: intPtr(2019),
			Conference:      "NAACL",
			Keywords:        []string{"language models", "pre-training", "transformers"},
			FullText: "Introduction\n\nLanguage model pre-training has been shown to be effective for improving many natural language processing tasks. These include sentence-level tasks such as natural language inference and paraphrasing, as well as token-level tasks such as named entity recognition.\n\n" +
				"Method\n\nBERT uses a masked language model pre-training objective, inspired by the Cloze task, to enable the representation to fuse the left and the right context, which allows us to pre-train a deep bidirectional Transformer.",
		},
		{
			ID:              "demo-hnsw",
			Title:           "Efficient and Robust Approximate Nearest Neighbor Search Using Hierarchical Navigable Small World Graphs",
			Authors:         []string{"Yu A. Malkov", "Dmitry A. Yashunin"},
			Abstract:        "We present a new approach for the approximate K-nearest neighbor search based on navigable small world graphs with controllable hierarchy. The proposed solution is fully graph-based, without any need for additional search structures.",
			PublicationYear: intPtr(2020),
			Journal:         "IEEE Transactions on Pattern Analysis and Machine Intelligence",
			Keywords:        []string{"nearest neighbor search", "similarity search", "graph algorithms"},
			FullText: "Introduction\n\nConstantly growing amounts of the available information resources have led to high demand in scalable and efficient similarity search data structures. K-nearest neighbor search is a fundamental operation used in many applications.\n\n" +
				"Algorithm\n\nThe Hierarchical NSW algorithm incrementally builds a multi-layer structure consisting of a hierarchical set of proximity graphs for nested subsets of the stored elements. The maximum layer for an element is selected randomly with an exponentially decaying probability distribution.",
		},
		{
			ID:              "demo-dense",
			Title:           "Dense Passage Retrieval for Open-Domain Question Answering",
			Authors:         []string{"Vladimir Karpukhin", "Barlas Oguz", "Sewon Min"},
			Abstract:        "Open-domain question answering relies on efficient passage retrieval to select candidate contexts. We show that retrieval can be practically implemented using dense representations alone, where embeddings are learned from a small number of questions and passages.",
			PublicationYear: intPtr(2020),
			Conference:      "EMNLP",
			Keywords:        []string{"dense retrieval", "question answering", "embeddings"},
			FullText: "Introduction\n\nOpen-domain question answering is a task that answers factoid questions using a large collection of documents. Retrieval in open-domain QA is usually implemented using TF-IDF or BM25, which matches keywords efficiently with an inverted index.\n\n" +
				"Experiments\n\nOur dense passage retriever outperforms a strong Lucene BM25 system largely, with gains of 9 to 19 percentage points in terms of top-20 passage retrieval accuracy, and helps our end-to-end QA system establish new state-of-the-art on multiple open-domain QA benchmarks.",
		},
	}
}
