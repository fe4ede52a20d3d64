// Package onepost contains the ABI and bindings for the deployed OnePostNFT
// marketplace contract. The contract is externally audited and deployed; only
// its ABI surface is embedded here.
package onepost

// ContractABI is the ABI of the OnePostNFT contract, trimmed to the
// functions and events this service calls or indexes.
const ContractABI = `[
	{
		"type": "function",
		"name": "createPost",
		"inputs": [
			{"name": "contentHash", "type": "string"},
			{"name": "price",       "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "proposeSell",
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "price",   "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "cancelSell",
		"inputs": [{"name": "proposalId", "type": "uint256"}],
		"outputs": [],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "buyPost",
		"inputs": [
			{"name": "tokenId",      "type": "uint256"},
			{"name": "tokenAddress", "type": "address"}
		],
		"outputs": [],
		"stateMutability": "payable"
	},
	{
		"type": "function",
		"name": "getAllPosts",
		"inputs": [
			{"name": "offset", "type": "uint32"},
			{"name": "limit",  "type": "uint32"}
		],
		"outputs": [{
			"name": "", "type": "tuple[]", "internalType": "struct OnePostNFT.Post[]",
			"components": [
				{"name": "tokenId",      "type": "uint256"},
				{"name": "author",       "type": "address"},
				{"name": "currentOwner", "type": "address"},
				{"name": "contentHash",  "type": "string"},
				{"name": "timestamp",    "type": "uint256"},
				{"name": "isForSale",    "type": "bool"},
				{"name": "price",        "type": "uint256"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getAllPostsForSale",
		"inputs": [
			{"name": "offset", "type": "uint32"},
			{"name": "limit",  "type": "uint32"}
		],
		"outputs": [{
			"name": "", "type": "tuple[]", "internalType": "struct OnePostNFT.Post[]",
			"components": [
				{"name": "tokenId",      "type": "uint256"},
				{"name": "author",       "type": "address"},
				{"name": "currentOwner", "type": "address"},
				{"name": "contentHash",  "type": "string"},
				{"name": "timestamp",    "type": "uint256"},
				{"name": "isForSale",    "type": "bool"},
				{"name": "price",        "type": "uint256"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getUserPosts",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{
			"name": "", "type": "tuple[]", "internalType": "struct OnePostNFT.Post[]",
			"components": [
				{"name": "tokenId",      "type": "uint256"},
				{"name": "author",       "type": "address"},
				{"name": "currentOwner", "type": "address"},
				{"name": "contentHash",  "type": "string"},
				{"name": "timestamp",    "type": "uint256"},
				{"name": "isForSale",    "type": "bool"},
				{"name": "price",        "type": "uint256"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getPostByTokenId",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{
			"name": "", "type": "tuple", "internalType": "struct OnePostNFT.Post",
			"components": [
				{"name": "tokenId",      "type": "uint256"},
				{"name": "author",       "type": "address"},
				{"name": "currentOwner", "type": "address"},
				{"name": "contentHash",  "type": "string"},
				{"name": "timestamp",    "type": "uint256"},
				{"name": "isForSale",    "type": "bool"},
				{"name": "price",        "type": "uint256"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getSellProposals",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{
			"name": "", "type": "tuple[]", "internalType": "struct OnePostNFT.SellProposal[]",
			"components": [
				{"name": "id",         "type": "uint256"},
				{"name": "tokenId",    "type": "uint256"},
				{"name": "seller",     "type": "address"},
				{"name": "buyer",      "type": "address"},
				{"name": "price",      "type": "uint256"},
				{"name": "expiration", "type": "uint256"},
				{"name": "isActive",   "type": "bool"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "isPostForSale",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getPostPrice",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getUserSoldNfts",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256[]"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "getUserSoldCount",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "ownerOf",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "balanceOf",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "royaltyPercentage",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "baseTokenAddress",
		"inputs": [],
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view"
	},
	{
		"type": "event",
		"name": "PostCreated",
		"inputs": [
			{"name": "tokenId",     "type": "uint256", "indexed": true},
			{"name": "author",      "type": "address", "indexed": true},
			{"name": "contentHash", "type": "string",  "indexed": false},
			{"name": "price",       "type": "uint256", "indexed": false},
			{"name": "timestamp",   "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "PostListedForSale",
		"inputs": [
			{"name": "tokenId", "type": "uint256", "indexed": true},
			{"name": "seller",  "type": "address", "indexed": true},
			{"name": "price",   "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "SellProposed",
		"inputs": [
			{"name": "proposalId", "type": "uint256", "indexed": true},
			{"name": "seller",     "type": "address", "indexed": true},
			{"name": "buyer",      "type": "address", "indexed": true},
			{"name": "tokenId",    "type": "uint256", "indexed": false},
			{"name": "price",      "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "SellCancelled",
		"inputs": [
			{"name": "proposalId", "type": "uint256", "indexed": true}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "PostSold",
		"inputs": [
			{"name": "tokenId",     "type": "uint256", "indexed": true},
			{"name": "seller",      "type": "address", "indexed": true},
			{"name": "buyer",       "type": "address", "indexed": true},
			{"name": "price",       "type": "uint256", "indexed": false},
			{"name": "royaltyPaid", "type": "uint256", "indexed": false}
		],
		"anonymous": false
	},
	{
		"type": "event",
		"name": "Transfer",
		"inputs": [
			{"name": "from",    "type": "address", "indexed": true},
			{"name": "to",      "type": "address", "indexed": true},
			{"name": "tokenId", "type": "uint256", "indexed": true}
		],
		"anonymous": false
	}
]`
